package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// MatchStateRepository persists live match states, one row per match.
type MatchStateRepository interface {
	// Get returns the live state of a match. Returns nil if none exists.
	Get(ctx context.Context, matchID int) (*models.MatchState, error)

	// Put creates or replaces the live state of a match.
	Put(ctx context.Context, state *models.MatchState) error

	// Delete discards the live state of a match. Deleting a missing state is not an error.
	Delete(ctx context.Context, matchID int) error
}

type matchStateRepository struct {
	db DBTX
}

// NewMatchStateRepository creates a new match state repository.
func NewMatchStateRepository(db DBTX) MatchStateRepository {
	return &matchStateRepository{db: db}
}

func (r *matchStateRepository) Get(ctx context.Context, matchID int) (*models.MatchState, error) {
	query := `
		SELECT match_id, home_state, away_state, paused, updated_at
		FROM match_states
		WHERE match_id = ?
	`

	state := &models.MatchState{}
	var home, away string
	err := r.db.QueryRowContext(ctx, query, matchID).Scan(
		&state.MatchID,
		&home,
		&away,
		&state.Paused,
		&state.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match state: %w", err)
	}

	if err := json.Unmarshal([]byte(home), &state.Home); err != nil {
		return nil, fmt.Errorf("failed to decode home state: %w", err)
	}
	if err := json.Unmarshal([]byte(away), &state.Away); err != nil {
		return nil, fmt.Errorf("failed to decode away state: %w", err)
	}
	return state, nil
}

func (r *matchStateRepository) Put(ctx context.Context, state *models.MatchState) error {
	home, err := json.Marshal(state.Home)
	if err != nil {
		return fmt.Errorf("failed to encode home state: %w", err)
	}
	away, err := json.Marshal(state.Away)
	if err != nil {
		return fmt.Errorf("failed to encode away state: %w", err)
	}

	query := `
		INSERT INTO match_states (match_id, home_state, away_state, paused, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			home_state = excluded.home_state,
			away_state = excluded.away_state,
			paused = excluded.paused,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query, state.MatchID, string(home), string(away), state.Paused, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put match state: %w", err)
	}
	return nil
}

func (r *matchStateRepository) Delete(ctx context.Context, matchID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM match_states WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("failed to delete match state: %w", err)
	}
	return nil
}
