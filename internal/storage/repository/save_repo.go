package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// SaveRepository handles database operations for saves.
type SaveRepository interface {
	// Create inserts a new save.
	Create(ctx context.Context, save *models.Save) error

	// GetByID retrieves a save by its ID. Returns nil if not found.
	GetByID(ctx context.Context, id string) (*models.Save, error)

	// List retrieves all saves, newest first.
	List(ctx context.Context) ([]*models.Save, error)

	// SetCurrentSeason updates the season counter of a save.
	SetCurrentSeason(ctx context.Context, id string, season int) error
}

type saveRepository struct {
	db DBTX
}

// NewSaveRepository creates a new save repository.
func NewSaveRepository(db DBTX) SaveRepository {
	return &saveRepository{db: db}
}

func (r *saveRepository) Create(ctx context.Context, save *models.Save) error {
	query := `INSERT INTO saves (id, name, current_season, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, save.ID, save.Name, save.CurrentSeason, save.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create save: %w", err)
	}
	return nil
}

func (r *saveRepository) GetByID(ctx context.Context, id string) (*models.Save, error) {
	query := `SELECT id, name, current_season, created_at FROM saves WHERE id = ?`

	save := &models.Save{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&save.ID, &save.Name, &save.CurrentSeason, &save.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get save by id: %w", err)
	}
	return save, nil
}

func (r *saveRepository) List(ctx context.Context) ([]*models.Save, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, current_season, created_at FROM saves ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer closeRows(rows)

	var saves []*models.Save
	for rows.Next() {
		save := &models.Save{}
		if err := rows.Scan(&save.ID, &save.Name, &save.CurrentSeason, &save.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		saves = append(saves, save)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saves: %w", err)
	}
	return saves, nil
}

func (r *saveRepository) SetCurrentSeason(ctx context.Context, id string, season int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE saves SET current_season = ? WHERE id = ?`, season, id)
	if err != nil {
		return fmt.Errorf("failed to update current season: %w", err)
	}
	return nil
}
