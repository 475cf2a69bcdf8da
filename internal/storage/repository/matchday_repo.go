package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// MatchdayRepository handles database operations for matchdays.
type MatchdayRepository interface {
	// Create inserts a new matchday and sets its ID.
	Create(ctx context.Context, matchday *models.Matchday) error

	// GetByID retrieves a matchday by its ID. Returns nil if not found.
	GetByID(ctx context.Context, id int) (*models.Matchday, error)

	// List retrieves a save's matchdays ordered by season, number and ID.
	List(ctx context.Context, saveID string, filter models.MatchdayFilter) ([]*models.Matchday, error)

	// MarkPlayed flips is_played to true. It reports whether the row changed,
	// so a second call is a no-op that returns false.
	MarkPlayed(ctx context.Context, id int) (bool, error)

	// MaxSeason returns the highest season among a save's matchdays, or 0 if there are none.
	MaxSeason(ctx context.Context, saveID string) (int, error)

	// Latest returns the highest-numbered matchday of a type in a season. Returns nil if none.
	Latest(ctx context.Context, saveID string, season int, matchdayType models.MatchdayType) (*models.Matchday, error)
}

type matchdayRepository struct {
	db DBTX
}

// NewMatchdayRepository creates a new matchday repository.
func NewMatchdayRepository(db DBTX) MatchdayRepository {
	return &matchdayRepository{db: db}
}

const matchdayColumns = `id, save_id, number, type, season, division, is_played, created_at`

func scanMatchday(scan func(dest ...interface{}) error) (*models.Matchday, error) {
	md := &models.Matchday{}
	err := scan(
		&md.ID,
		&md.SaveID,
		&md.Number,
		&md.Type,
		&md.Season,
		&md.Division,
		&md.IsPlayed,
		&md.CreatedAt,
	)
	return md, err
}

func (r *matchdayRepository) Create(ctx context.Context, matchday *models.Matchday) error {
	query := `
		INSERT INTO matchdays (save_id, number, type, season, division, is_played, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		matchday.SaveID,
		matchday.Number,
		matchday.Type,
		matchday.Season,
		matchday.Division,
		matchday.IsPlayed,
		matchday.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create matchday: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	matchday.ID = int(id)
	return nil
}

func (r *matchdayRepository) GetByID(ctx context.Context, id int) (*models.Matchday, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchdayColumns+` FROM matchdays WHERE id = ?`, id)
	md, err := scanMatchday(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get matchday by id: %w", err)
	}
	return md, nil
}

func (r *matchdayRepository) List(ctx context.Context, saveID string, filter models.MatchdayFilter) ([]*models.Matchday, error) {
	query := `SELECT ` + matchdayColumns + ` FROM matchdays WHERE save_id = ?`
	args := []interface{}{saveID}

	if filter.Season != nil {
		query += " AND season = ?"
		args = append(args, *filter.Season)
	}
	if filter.Type != nil {
		query += " AND type = ?"
		args = append(args, *filter.Type)
	}
	if filter.Division != nil {
		query += " AND division = ?"
		args = append(args, *filter.Division)
	}
	if filter.PlayedOnly {
		query += " AND is_played = 1"
	}

	query += " ORDER BY season, number, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matchdays: %w", err)
	}
	defer closeRows(rows)

	var matchdays []*models.Matchday
	for rows.Next() {
		md, err := scanMatchday(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matchday: %w", err)
		}
		matchdays = append(matchdays, md)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matchdays: %w", err)
	}
	return matchdays, nil
}

func (r *matchdayRepository) MarkPlayed(ctx context.Context, id int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE matchdays SET is_played = 1 WHERE id = ? AND is_played = 0`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark matchday played: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *matchdayRepository) MaxSeason(ctx context.Context, saveID string) (int, error) {
	var season int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(season), 0) FROM matchdays WHERE save_id = ?`, saveID).Scan(&season)
	if err != nil {
		return 0, fmt.Errorf("failed to get max season: %w", err)
	}
	return season, nil
}

func (r *matchdayRepository) Latest(ctx context.Context, saveID string, season int, matchdayType models.MatchdayType) (*models.Matchday, error) {
	query := `
		SELECT ` + matchdayColumns + `
		FROM matchdays
		WHERE save_id = ? AND season = ? AND type = ?
		ORDER BY number DESC, id DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, saveID, season, matchdayType)
	md, err := scanMatchday(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest matchday: %w", err)
	}
	return md, nil
}
