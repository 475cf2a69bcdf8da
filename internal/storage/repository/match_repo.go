package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// MatchRepository handles database operations for matches.
type MatchRepository interface {
	// Create inserts a new match and sets its ID.
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match by its ID. Returns nil if not found.
	GetByID(ctx context.Context, id int) (*models.Match, error)

	// SaveIDOf returns the save a match belongs to, or "" if the match does not exist.
	SaveIDOf(ctx context.Context, id int) (string, error)

	// ListByMatchday retrieves the matches of one matchday ordered by ID.
	ListByMatchday(ctx context.Context, matchdayID int) ([]*models.Match, error)

	// ListByMatchdays retrieves the matches of several matchdays ordered by ID.
	ListByMatchdays(ctx context.Context, matchdayIDs []int) ([]*models.Match, error)

	// ListPlayedByTeam retrieves a team's played matches in a save, oldest round first.
	// If season is nil, every season is included.
	ListPlayedByTeam(ctx context.Context, saveID string, teamID int, season *int) ([]*models.Match, error)

	// ListIDsBySave returns the IDs of every match in a save.
	ListIDsBySave(ctx context.Context, saveID string) ([]int, error)

	// CountByMatchday counts the matches of a matchday.
	CountByMatchday(ctx context.Context, matchdayID int) (int, error)

	// RecordResult stores the final score and marks the match played.
	RecordResult(ctx context.Context, id, homeGoals, awayGoals int) error
}

type matchRepository struct {
	db DBTX
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db DBTX) MatchRepository {
	return &matchRepository{db: db}
}

const matchColumns = `m.id, m.matchday_id, m.home_team_id, m.away_team_id, m.home_goals, m.away_goals, m.is_played, m.scheduled_at, m.created_at`

func scanMatch(scan func(dest ...interface{}) error) (*models.Match, error) {
	match := &models.Match{}
	err := scan(
		&match.ID,
		&match.MatchdayID,
		&match.HomeTeamID,
		&match.AwayTeamID,
		&match.HomeGoals,
		&match.AwayGoals,
		&match.IsPlayed,
		&match.ScheduledAt,
		&match.CreatedAt,
	)
	return match, err
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (
			matchday_id, home_team_id, away_team_id, home_goals, away_goals,
			is_played, scheduled_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		match.MatchdayID,
		match.HomeTeamID,
		match.AwayTeamID,
		match.HomeGoals,
		match.AwayGoals,
		match.IsPlayed,
		match.ScheduledAt,
		match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	match.ID = int(id)
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches m WHERE m.id = ?`, id)
	match, err := scanMatch(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}
	return match, nil
}

func (r *matchRepository) SaveIDOf(ctx context.Context, id int) (string, error) {
	query := `
		SELECT md.save_id
		FROM matches m
		JOIN matchdays md ON md.id = m.matchday_id
		WHERE m.id = ?
	`
	var saveID string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&saveID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get save of match: %w", err)
	}
	return saveID, nil
}

func (r *matchRepository) ListByMatchday(ctx context.Context, matchdayID int) ([]*models.Match, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM matches m WHERE m.matchday_id = ? ORDER BY m.id`, matchdayID)
}

func (r *matchRepository) ListByMatchdays(ctx context.Context, matchdayIDs []int) ([]*models.Match, error) {
	if len(matchdayIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE m.matchday_id IN (` + placeholders(len(matchdayIDs)) + `) ORDER BY m.id`
	return r.list(ctx, query, intArgs(matchdayIDs)...)
}

func (r *matchRepository) ListPlayedByTeam(ctx context.Context, saveID string, teamID int, season *int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches m
		JOIN matchdays md ON md.id = m.matchday_id
		WHERE md.save_id = ? AND m.is_played = 1 AND (m.home_team_id = ? OR m.away_team_id = ?)
	`
	args := []interface{}{saveID, teamID, teamID}

	if season != nil {
		query += " AND md.season = ?"
		args = append(args, *season)
	}
	query += " ORDER BY md.season, md.number, m.id"

	return r.list(ctx, query, args...)
}

func (r *matchRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer closeRows(rows)

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

func (r *matchRepository) ListIDsBySave(ctx context.Context, saveID string) ([]int, error) {
	query := `
		SELECT m.id
		FROM matches m
		JOIN matchdays md ON md.id = m.matchday_id
		WHERE md.save_id = ?
		ORDER BY m.id
	`
	rows, err := r.db.QueryContext(ctx, query, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match ids: %w", err)
	}
	defer closeRows(rows)

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match ids: %w", err)
	}
	return ids, nil
}

func (r *matchRepository) CountByMatchday(ctx context.Context, matchdayID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE matchday_id = ?`, matchdayID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

func (r *matchRepository) RecordResult(ctx context.Context, id, homeGoals, awayGoals int) error {
	query := `UPDATE matches SET home_goals = ?, away_goals = ?, is_played = 1 WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, homeGoals, awayGoals, id); err != nil {
		return fmt.Errorf("failed to record match result: %w", err)
	}
	return nil
}
