package repository

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// PlayerStatRepository handles the projected per-player match statistics.
type PlayerStatRepository interface {
	// Upsert writes a stat row, overwriting every counter of an existing row.
	Upsert(ctx context.Context, stat *models.PlayerMatchStat) error

	// DeleteByMatch removes every stat row of a match.
	DeleteByMatch(ctx context.Context, matchID int) error

	// ListByMatch returns a match's stat rows ordered by player ID.
	ListByMatch(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error)

	// GoalTotals sums projected goals per player, keeping only players with goals,
	// ordered goals descending then player ID ascending.
	GoalTotals(ctx context.Context, q models.ScorerQuery) ([]models.GoalTally, error)
}

type playerStatRepository struct {
	db DBTX
}

// NewPlayerStatRepository creates a new player stat repository.
func NewPlayerStatRepository(db DBTX) PlayerStatRepository {
	return &playerStatRepository{db: db}
}

func (r *playerStatRepository) Upsert(ctx context.Context, stat *models.PlayerMatchStat) error {
	query := `
		INSERT INTO player_match_stats (
			player_id, match_id, goals, assists, yellow_cards, red_cards, injuries, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id, match_id) DO UPDATE SET
			goals = excluded.goals,
			assists = excluded.assists,
			yellow_cards = excluded.yellow_cards,
			red_cards = excluded.red_cards,
			injuries = excluded.injuries,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		stat.PlayerID,
		stat.MatchID,
		stat.Goals,
		stat.Assists,
		stat.YellowCards,
		stat.RedCards,
		stat.Injuries,
		stat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player match stat: %w", err)
	}
	return nil
}

func (r *playerStatRepository) DeleteByMatch(ctx context.Context, matchID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM player_match_stats WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("failed to delete player match stats: %w", err)
	}
	return nil
}

func (r *playerStatRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error) {
	query := `
		SELECT player_id, match_id, goals, assists, yellow_cards, red_cards, injuries, updated_at
		FROM player_match_stats
		WHERE match_id = ?
		ORDER BY player_id
	`
	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list player match stats: %w", err)
	}
	defer closeRows(rows)

	var stats []*models.PlayerMatchStat
	for rows.Next() {
		s := &models.PlayerMatchStat{}
		if err := rows.Scan(
			&s.PlayerID,
			&s.MatchID,
			&s.Goals,
			&s.Assists,
			&s.YellowCards,
			&s.RedCards,
			&s.Injuries,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player match stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player match stats: %w", err)
	}
	return stats, nil
}

func (r *playerStatRepository) GoalTotals(ctx context.Context, q models.ScorerQuery) ([]models.GoalTally, error) {
	query := `
		SELECT s.player_id, SUM(s.goals) AS goals
		FROM player_match_stats s
		JOIN matches m ON m.id = s.match_id
		JOIN matchdays md ON md.id = m.matchday_id
		WHERE md.save_id = ?
	`
	args := []interface{}{q.SaveID}
	query, args = scorerScope(q, query, args)
	query += " GROUP BY s.player_id HAVING SUM(s.goals) > 0 ORDER BY goals DESC, s.player_id ASC"
	query, args = scorerLimit(q, query, args)

	return queryTallies(ctx, r.db, query, args)
}
