package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// PlayerRepository handles database operations for players.
type PlayerRepository interface {
	// Create inserts a new player and sets its ID.
	Create(ctx context.Context, player *models.Player) error

	// GetByID retrieves a player by its ID. Returns nil if not found.
	GetByID(ctx context.Context, id int) (*models.Player, error)

	// ListByTeam retrieves a team's squad ordered by ID.
	ListByTeam(ctx context.Context, teamID int) ([]*models.Player, error)

	// Positions returns the position of each known player in ids.
	Positions(ctx context.Context, ids []int) (map[int]models.Position, error)

	// Profiles returns display metadata for each known player in ids.
	// Unknown IDs are absent from the result.
	Profiles(ctx context.Context, ids []int) (map[int]*models.PlayerProfile, error)
}

type playerRepository struct {
	db DBTX
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db DBTX) PlayerRepository {
	return &playerRepository{db: db}
}

const playerColumns = `id, save_id, name, position, rating, behavior, salary, contract_expires, team_id, created_at`

func scanPlayer(scan func(dest ...interface{}) error) (*models.Player, error) {
	p := &models.Player{}
	err := scan(
		&p.ID,
		&p.SaveID,
		&p.Name,
		&p.Position,
		&p.Rating,
		&p.Behavior,
		&p.Salary,
		&p.ContractExpires,
		&p.TeamID,
		&p.CreatedAt,
	)
	return p, err
}

func (r *playerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (
			save_id, name, position, rating, behavior, salary, contract_expires, team_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		player.SaveID,
		player.Name,
		player.Position,
		player.Rating,
		player.Behavior,
		player.Salary,
		player.ContractExpires,
		player.TeamID,
		player.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	player.ID = int(id)
	return nil
}

func (r *playerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	player, err := scanPlayer(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}
	return player, nil
}

func (r *playerRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players WHERE team_id = ? ORDER BY id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer closeRows(rows)

	var players []*models.Player
	for rows.Next() {
		player, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}

func (r *playerRepository) Positions(ctx context.Context, ids []int) (map[int]models.Position, error) {
	positions := make(map[int]models.Position, len(ids))
	if len(ids) == 0 {
		return positions, nil
	}

	query := `SELECT id, position FROM players WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, query, intArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get player positions: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var id int
		var pos models.Position
		if err := rows.Scan(&id, &pos); err != nil {
			return nil, fmt.Errorf("failed to scan player position: %w", err)
		}
		positions[id] = pos
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player positions: %w", err)
	}
	return positions, nil
}

func (r *playerRepository) Profiles(ctx context.Context, ids []int) (map[int]*models.PlayerProfile, error) {
	profiles := make(map[int]*models.PlayerProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	query := `
		SELECT p.id, p.name, p.position, p.team_id, COALESCE(t.name, '')
		FROM players p
		LEFT JOIN teams t ON t.id = p.team_id
		WHERE p.id IN (` + placeholders(len(ids)) + `)
	`
	rows, err := r.db.QueryContext(ctx, query, intArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get player profiles: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		profile := &models.PlayerProfile{}
		if err := rows.Scan(&profile.PlayerID, &profile.Name, &profile.Position, &profile.TeamID, &profile.TeamName); err != nil {
			return nil, fmt.Errorf("failed to scan player profile: %w", err)
		}
		profiles[profile.PlayerID] = profile
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player profiles: %w", err)
	}
	return profiles, nil
}
