package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// TeamRepository handles database operations for teams.
type TeamRepository interface {
	// Create inserts a new team and sets its ID.
	Create(ctx context.Context, team *models.Team) error

	// GetByID retrieves a team by its ID. Returns nil if not found.
	GetByID(ctx context.Context, id int) (*models.Team, error)

	// ListBySave retrieves every team of a save ordered by ID.
	ListBySave(ctx context.Context, saveID string) ([]*models.Team, error)

	// ListByDivision retrieves the teams of one division ordered by ID.
	ListByDivision(ctx context.Context, saveID, division string) ([]*models.Team, error)

	// UpdateForm stores a new rating and morale.
	UpdateForm(ctx context.Context, id, rating, morale int) error
}

type teamRepository struct {
	db DBTX
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db DBTX) TeamRepository {
	return &teamRepository{db: db}
}

const teamColumns = `id, save_id, name, division, rating, morale, created_at`

func (r *teamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (save_id, name, division, rating, morale, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		team.SaveID,
		team.Name,
		team.Division,
		team.Rating,
		team.Morale,
		team.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	team.ID = int(id)
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ?`, id).Scan(
		&team.ID,
		&team.SaveID,
		&team.Name,
		&team.Division,
		&team.Rating,
		&team.Morale,
		&team.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by id: %w", err)
	}
	return team, nil
}

func (r *teamRepository) ListBySave(ctx context.Context, saveID string) ([]*models.Team, error) {
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams WHERE save_id = ? ORDER BY id`, saveID)
}

func (r *teamRepository) ListByDivision(ctx context.Context, saveID, division string) ([]*models.Team, error) {
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams WHERE save_id = ? AND division = ? ORDER BY id`, saveID, division)
}

func (r *teamRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer closeRows(rows)

	var teams []*models.Team
	for rows.Next() {
		team := &models.Team{}
		if err := rows.Scan(
			&team.ID,
			&team.SaveID,
			&team.Name,
			&team.Division,
			&team.Rating,
			&team.Morale,
			&team.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return teams, nil
}

func (r *teamRepository) UpdateForm(ctx context.Context, id, rating, morale int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE teams SET rating = ?, morale = ? WHERE id = ?`, rating, morale, id)
	if err != nil {
		return fmt.Errorf("failed to update team form: %w", err)
	}
	return nil
}
