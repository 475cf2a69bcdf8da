// Package goldenboot ranks a save's goal scorers.
//
// Rankings are read from projected player stats. When nothing has been
// projected yet the ranker counts GOAL events instead, so a leaderboard is
// available straight after a match and matches the projected one once the
// projector has run.
package goldenboot

import (
	"context"
	"fmt"
	"log"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// DefaultLimit is used when a caller asks for a non-positive number of rows.
const DefaultLimit = 10

// Sources a leaderboard can be computed from.
const (
	SourceStats  = "stats"
	SourceEvents = "events"
)

// Store is the persistence the ranker reads from. Both tally queries order
// by goals descending, then player ID ascending.
type Store interface {
	GetSave(ctx context.Context, id string) (*models.Save, error)
	MaxSeason(ctx context.Context, saveID string) (int, error)
	StatGoalTotals(ctx context.Context, q models.ScorerQuery) ([]models.GoalTally, error)
	EventGoalTotals(ctx context.Context, q models.ScorerQuery) ([]models.GoalTally, error)
	PlayerProfiles(ctx context.Context, ids []int) (map[int]*models.PlayerProfile, error)
}

// Leaderboard is a ranked list of scorers. Season is nil for all-time rankings.
type Leaderboard struct {
	SaveID  string          `json:"save_id"`
	Season  *int            `json:"season,omitempty"`
	Scope   models.Scope    `json:"scope"`
	Source  string          `json:"source"`
	Scorers []models.Scorer `json:"scorers"`
}

// Ranker builds golden boot leaderboards.
type Ranker struct {
	store Store
}

// NewRanker creates a ranker.
func NewRanker(store Store) *Ranker {
	return &Ranker{store: store}
}

// TopScorers ranks the scorers of one season. A nil season means the latest
// season scheduled in the save, or 1 when nothing is scheduled.
func (r *Ranker) TopScorers(ctx context.Context, saveID string, season *int, scope models.Scope, limit int) (*Leaderboard, error) {
	if err := r.requireSave(ctx, saveID); err != nil {
		return nil, err
	}

	if season == nil {
		latest, err := r.store.MaxSeason(ctx, saveID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve season: %w", err)
		}
		if latest == 0 {
			latest = 1
		}
		season = &latest
	}

	return r.rank(ctx, saveID, season, scope, limit)
}

// HistoricalTopScorers ranks the scorers across every season of the save.
func (r *Ranker) HistoricalTopScorers(ctx context.Context, saveID string, scope models.Scope, limit int) (*Leaderboard, error) {
	if err := r.requireSave(ctx, saveID); err != nil {
		return nil, err
	}
	return r.rank(ctx, saveID, nil, scope, limit)
}

func (r *Ranker) rank(ctx context.Context, saveID string, season *int, requested models.Scope, limit int) (*Leaderboard, error) {
	scope, ok := models.ParseScope(string(requested))
	if !ok {
		return nil, apperr.Validation("scope", "unknown scope %q", requested)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := models.ScorerQuery{
		SaveID: saveID,
		Season: season,
		Type:   scope.MatchdayType(),
		Limit:  limit,
	}

	source := SourceStats
	tallies, err := r.store.StatGoalTotals(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to sum projected goals: %w", err)
	}
	if len(tallies) == 0 {
		source = SourceEvents
		tallies, err = r.store.EventGoalTotals(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to count goal events: %w", err)
		}
		if len(tallies) > 0 {
			log.Printf("[GoldenBootRanker] No projected stats for save %s, ranked %d scorers from events", saveID, len(tallies))
		}
	}

	scorers, err := r.annotate(ctx, tallies)
	if err != nil {
		return nil, err
	}

	return &Leaderboard{
		SaveID:  saveID,
		Season:  season,
		Scope:   scope,
		Source:  source,
		Scorers: scorers,
	}, nil
}

// annotate joins display metadata onto tallies. Players that cannot be
// resolved keep their row under a placeholder name, so ranks stay contiguous.
func (r *Ranker) annotate(ctx context.Context, tallies []models.GoalTally) ([]models.Scorer, error) {
	ids := make([]int, len(tallies))
	for i, t := range tallies {
		ids[i] = t.PlayerID
	}

	profiles, err := r.store.PlayerProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load player profiles: %w", err)
	}

	scorers := make([]models.Scorer, len(tallies))
	for i, t := range tallies {
		scorer := models.Scorer{
			Rank:       i + 1,
			PlayerID:   t.PlayerID,
			PlayerName: UnknownPlayerName(t.PlayerID),
			Goals:      t.Goals,
		}
		if p, ok := profiles[t.PlayerID]; ok {
			scorer.PlayerName = p.Name
			scorer.TeamID = p.TeamID
			scorer.TeamName = p.TeamName
			scorer.Position = p.Position
		}
		scorers[i] = scorer
	}
	return scorers, nil
}

func (r *Ranker) requireSave(ctx context.Context, saveID string) error {
	save, err := r.store.GetSave(ctx, saveID)
	if err != nil {
		return fmt.Errorf("failed to load save %s: %w", saveID, err)
	}
	if save == nil {
		return apperr.NotFound("save", saveID)
	}
	return nil
}

// UnknownPlayerName is the label of a scorer whose player record is gone.
func UnknownPlayerName(playerID int) string {
	return fmt.Sprintf("Unknown player #%d", playerID)
}
