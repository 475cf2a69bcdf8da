package repository

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// scorerScope appends the season and type filters shared by both goal queries.
func scorerScope(q models.ScorerQuery, query string, args []interface{}) (string, []interface{}) {
	if q.Season != nil {
		query += " AND md.season = ?"
		args = append(args, *q.Season)
	}
	if q.Type != nil {
		query += " AND md.type = ?"
		args = append(args, *q.Type)
	}
	return query, args
}

func scorerLimit(q models.ScorerQuery, query string, args []interface{}) (string, []interface{}) {
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	return query, args
}

// EventRepository handles the append-only match event log.
type EventRepository interface {
	// Append inserts a new event and sets its ID.
	Append(ctx context.Context, event *models.MatchEvent) error

	// ListByMatch returns a match's events in the order they happened.
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchEvent, error)

	// GoalTotals counts GOAL events with a known scorer, grouped by player,
	// goals descending then player ID ascending.
	GoalTotals(ctx context.Context, q models.ScorerQuery) ([]models.GoalTally, error)
}

type eventRepository struct {
	db DBTX
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db DBTX) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, event *models.MatchEvent) error {
	query := `
		INSERT INTO match_events (match_id, minute, type, player_id, team_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.MatchID,
		event.Minute,
		event.Type,
		event.PlayerID,
		event.TeamID,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append match event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	event.ID = int(id)
	return nil
}

func (r *eventRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchEvent, error) {
	query := `
		SELECT id, match_id, minute, type, player_id, team_id, created_at
		FROM match_events
		WHERE match_id = ?
		ORDER BY minute, id
	`
	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match events: %w", err)
	}
	defer closeRows(rows)

	var events []*models.MatchEvent
	for rows.Next() {
		e := &models.MatchEvent{}
		if err := rows.Scan(&e.ID, &e.MatchID, &e.Minute, &e.Type, &e.PlayerID, &e.TeamID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) GoalTotals(ctx context.Context, q models.ScorerQuery) ([]models.GoalTally, error) {
	query := `
		SELECT e.player_id, COUNT(*) AS goals
		FROM match_events e
		JOIN matches m ON m.id = e.match_id
		JOIN matchdays md ON md.id = m.matchday_id
		WHERE e.type = 'GOAL' AND e.player_id IS NOT NULL AND md.save_id = ?
	`
	args := []interface{}{q.SaveID}
	query, args = scorerScope(q, query, args)
	query += " GROUP BY e.player_id ORDER BY goals DESC, e.player_id ASC"
	query, args = scorerLimit(q, query, args)

	return queryTallies(ctx, r.db, query, args)
}

func queryTallies(ctx context.Context, db DBTX, query string, args []interface{}) ([]models.GoalTally, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goal totals: %w", err)
	}
	defer closeRows(rows)

	var tallies []models.GoalTally
	for rows.Next() {
		var t models.GoalTally
		if err := rows.Scan(&t.PlayerID, &t.Goals); err != nil {
			return nil, fmt.Errorf("failed to scan goal total: %w", err)
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal totals: %w", err)
	}
	return tallies, nil
}
