// Package matchday closes rounds once their matches have been simulated.
package matchday

import (
	"context"
	"fmt"
	"log"

	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/standings"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// StandingsFinalizer flips a matchday to played and recomputes the table.
type StandingsFinalizer interface {
	FinalizeMatchday(ctx context.Context, saveID string, matchdayID int) (*standings.FinalizeResult, error)
}

// StatsProjector backfills the player stats of a round.
type StatsProjector interface {
	ProjectMatchday(ctx context.Context, matchdayID int) (int, error)
}

// Summary reports a finalized matchday.
type Summary struct {
	SaveID           string               `json:"save_id"`
	MatchdayID       int                  `json:"matchday_id"`
	MatchesFinalized int                  `json:"matches_finalized"`
	AlreadyPlayed    bool                 `json:"already_played"`
	StatsProjected   int                  `json:"stats_projected"`
	StandingsPreview []models.StandingRow `json:"standings_preview"`
}

// Options configures a Finalizer.
type Options struct {
	// ProjectOnFinalize re-projects the stats of every match of the round
	// after it has been flagged played.
	ProjectOnFinalize bool
}

// Finalizer composes the standings aggregator and, optionally, the stats projector.
type Finalizer struct {
	standings  StandingsFinalizer
	projector  StatsProjector
	opts       Options
	dispatcher *events.EventDispatcher
}

// NewFinalizer creates a finalizer. projector may be nil when ProjectOnFinalize is off.
func NewFinalizer(agg StandingsFinalizer, projector StatsProjector, opts Options, dispatcher *events.EventDispatcher) *Finalizer {
	return &Finalizer{
		standings:  agg,
		projector:  projector,
		opts:       opts,
		dispatcher: dispatcher,
	}
}

// Finalize closes a matchday of a save. Calling it again on a played matchday
// returns a fresh summary with AlreadyPlayed set.
func (f *Finalizer) Finalize(ctx context.Context, saveID string, matchdayID int) (*Summary, error) {
	result, err := f.standings.FinalizeMatchday(ctx, saveID, matchdayID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		SaveID:           saveID,
		MatchdayID:       matchdayID,
		MatchesFinalized: result.MatchCount,
		AlreadyPlayed:    result.AlreadyPlayed,
		StandingsPreview: result.Standings,
	}

	if f.opts.ProjectOnFinalize && f.projector != nil {
		n, err := f.projector.ProjectMatchday(ctx, matchdayID)
		if err != nil {
			return nil, fmt.Errorf("failed to project stats of matchday %d: %w", matchdayID, err)
		}
		summary.StatsProjected = n
	}

	log.Printf("[MatchdayFinalizer] Matchday %d of save %s: %d matches (already played: %v)",
		matchdayID, saveID, summary.MatchesFinalized, summary.AlreadyPlayed)

	events.Publish(f.dispatcher, ctx, events.TypeMatchdayFinalized, events.MatchdayFinalizedEvent{
		SaveID:           saveID,
		MatchdayID:       matchdayID,
		MatchesFinalized: summary.MatchesFinalized,
		AlreadyPlayed:    summary.AlreadyPlayed,
	})

	return summary, nil
}
