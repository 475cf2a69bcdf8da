// Package stats projects match event logs into per-player statistics and
// derives team form from recorded results.
package stats

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// Store is the persistence the projector needs.
type Store interface {
	GetSave(ctx context.Context, id string) (*models.Save, error)
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	GetMatchday(ctx context.Context, id int) (*models.Matchday, error)
	MatchesByMatchday(ctx context.Context, matchdayID int) ([]*models.Match, error)
	MatchIDsBySave(ctx context.Context, saveID string) ([]int, error)
	MatchEvents(ctx context.Context, matchID int) ([]*models.MatchEvent, error)
	ReplaceMatchStats(ctx context.Context, matchID int, stats []*models.PlayerMatchStat) error
}

// Options controls which events count towards the projection.
type Options struct {
	// TallyYellowCards counts YELLOW events into YellowCards.
	// Off by default: bookings are logged but not projected.
	TallyYellowCards bool
}

// Projector rebuilds PlayerMatchStat rows from the event log.
// Every run overwrites the previous projection of a match, so it is safe to repeat.
type Projector struct {
	store      Store
	opts       Options
	dispatcher *events.EventDispatcher
	now        func() time.Time
}

// NewProjector creates a projector. A nil dispatcher disables event publishing.
func NewProjector(store Store, opts Options, dispatcher *events.EventDispatcher) *Projector {
	return &Projector{
		store:      store,
		opts:       opts,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ProjectMatch recomputes the stats of one match from its full event log.
func (p *Projector) ProjectMatch(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error) {
	match, err := p.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	if match == nil {
		return nil, apperr.NotFound("match", matchID)
	}

	projected, err := p.projectMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	p.dispatch(ctx, events.StatsProjectedEvent{Scope: "match", ID: fmt.Sprint(matchID), Matches: 1})
	return projected, nil
}

// ProjectMatchday recomputes the stats of every match of a matchday and
// returns how many matches were projected.
func (p *Projector) ProjectMatchday(ctx context.Context, matchdayID int) (int, error) {
	matchday, err := p.store.GetMatchday(ctx, matchdayID)
	if err != nil {
		return 0, fmt.Errorf("failed to load matchday %d: %w", matchdayID, err)
	}
	if matchday == nil {
		return 0, apperr.NotFound("matchday", matchdayID)
	}

	matches, err := p.store.MatchesByMatchday(ctx, matchdayID)
	if err != nil {
		return 0, fmt.Errorf("failed to list matches of matchday %d: %w", matchdayID, err)
	}

	for _, m := range matches {
		if _, err := p.projectMatch(ctx, m.ID); err != nil {
			return 0, err
		}
	}

	log.Printf("[StatsProjector] Projected %d matches of matchday %d", len(matches), matchdayID)
	p.dispatch(ctx, events.StatsProjectedEvent{Scope: "matchday", ID: fmt.Sprint(matchdayID), Matches: len(matches)})
	return len(matches), nil
}

// ProjectSave backfills the stats of every match of a save.
func (p *Projector) ProjectSave(ctx context.Context, saveID string) (int, error) {
	save, err := p.store.GetSave(ctx, saveID)
	if err != nil {
		return 0, fmt.Errorf("failed to load save %s: %w", saveID, err)
	}
	if save == nil {
		return 0, apperr.NotFound("save", saveID)
	}

	ids, err := p.store.MatchIDsBySave(ctx, saveID)
	if err != nil {
		return 0, fmt.Errorf("failed to list matches of save %s: %w", saveID, err)
	}

	for _, id := range ids {
		if _, err := p.projectMatch(ctx, id); err != nil {
			return 0, err
		}
	}

	log.Printf("[StatsProjector] Projected %d matches of save %s", len(ids), saveID)
	p.dispatch(ctx, events.StatsProjectedEvent{Scope: "save", ID: saveID, Matches: len(ids)})
	return len(ids), nil
}

func (p *Projector) projectMatch(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error) {
	matchLog, err := p.store.MatchEvents(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events of match %d: %w", matchID, err)
	}

	projected, err := Tally(matchID, matchLog, p.opts)
	if err != nil {
		return nil, err
	}

	now := p.now()
	for _, s := range projected {
		s.UpdatedAt = now
	}

	if err := p.store.ReplaceMatchStats(ctx, matchID, projected); err != nil {
		return nil, fmt.Errorf("failed to store stats of match %d: %w", matchID, err)
	}
	return projected, nil
}

func (p *Projector) dispatch(ctx context.Context, payload events.StatsProjectedEvent) {
	events.Publish(p.dispatcher, ctx, events.TypeStatsProjected, payload)
}

// Tally folds a match's event log into one stat row per player, ordered by player ID.
// Events without a player are skipped. Every player named by an event gets a
// row, even if none of its events carry a counter (e.g. SUB).
// An event type the projector does not know is an error.
func Tally(matchID int, matchLog []*models.MatchEvent, opts Options) ([]*models.PlayerMatchStat, error) {
	byPlayer := make(map[int]*models.PlayerMatchStat)

	for _, ev := range matchLog {
		if ev.MatchID != matchID {
			return nil, fmt.Errorf("event %d belongs to match %d, not %d", ev.ID, ev.MatchID, matchID)
		}
		if ev.PlayerID == nil {
			if !models.ValidEventType(ev.Type) {
				return nil, apperr.Validation("type", "unknown event type %q on event %d", ev.Type, ev.ID)
			}
			continue
		}

		row, ok := byPlayer[*ev.PlayerID]
		if !ok {
			row = &models.PlayerMatchStat{PlayerID: *ev.PlayerID, MatchID: matchID}
			byPlayer[*ev.PlayerID] = row
		}

		switch ev.Type {
		case models.EventGoal:
			row.Goals++
		case models.EventAssist:
			row.Assists++
		case models.EventYellow:
			if opts.TallyYellowCards {
				row.YellowCards++
			}
		case models.EventRed:
			row.RedCards++
		case models.EventInjury:
			row.Injuries++
		case models.EventSub:
			// logged for the timeline only
		default:
			return nil, apperr.Validation("type", "unknown event type %q on event %d", ev.Type, ev.ID)
		}
	}

	rows := make([]*models.PlayerMatchStat, 0, len(byPlayer))
	for _, row := range byPlayer {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PlayerID < rows[j].PlayerID })
	return rows, nil
}
