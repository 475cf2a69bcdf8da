package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
	"github.com/ramonehamilton/season-engine/internal/storage/repository"
)

// Service provides high-level operations over the season data.
// It satisfies the store interfaces of the domain packages.
type Service struct {
	db          *DB
	saves       repository.SaveRepository
	teams       repository.TeamRepository
	players     repository.PlayerRepository
	matchdays   repository.MatchdayRepository
	matches     repository.MatchRepository
	events      repository.EventRepository
	stats       repository.PlayerStatRepository
	matchStates repository.MatchStateRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:          db,
		saves:       repository.NewSaveRepository(db.Conn()),
		teams:       repository.NewTeamRepository(db.Conn()),
		players:     repository.NewPlayerRepository(db.Conn()),
		matchdays:   repository.NewMatchdayRepository(db.Conn()),
		matches:     repository.NewMatchRepository(db.Conn()),
		events:      repository.NewEventRepository(db.Conn()),
		stats:       repository.NewPlayerStatRepository(db.Conn()),
		matchStates: repository.NewMatchStateRepository(db.Conn()),
	}
}

// MatchStates returns the sqlite-backed live match state store.
func (s *Service) MatchStates() repository.MatchStateRepository {
	return s.matchStates
}

// Saves

// CreateSave creates a new save starting at season 1.
func (s *Service) CreateSave(ctx context.Context, name string) (*models.Save, error) {
	save := &models.Save{
		ID:            uuid.New().String(),
		Name:          name,
		CurrentSeason: 1,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.saves.Create(ctx, save); err != nil {
		return nil, err
	}
	return save, nil
}

// GetSave returns a save, or nil if it does not exist.
func (s *Service) GetSave(ctx context.Context, id string) (*models.Save, error) {
	return s.saves.GetByID(ctx, id)
}

// ListSaves returns every save, newest first.
func (s *Service) ListSaves(ctx context.Context) ([]*models.Save, error) {
	return s.saves.List(ctx)
}

// Teams and players

// CreateTeam inserts a team.
func (s *Service) CreateTeam(ctx context.Context, team *models.Team) error {
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	return s.teams.Create(ctx, team)
}

// CreatePlayer inserts a player.
func (s *Service) CreatePlayer(ctx context.Context, player *models.Player) error {
	if player.CreatedAt.IsZero() {
		player.CreatedAt = time.Now().UTC()
	}
	return s.players.Create(ctx, player)
}

// TeamsBySave returns every team of a save.
func (s *Service) TeamsBySave(ctx context.Context, saveID string) ([]*models.Team, error) {
	return s.teams.ListBySave(ctx, saveID)
}

// TeamsByDivision returns the teams of one division of a save.
func (s *Service) TeamsByDivision(ctx context.Context, saveID, division string) ([]*models.Team, error) {
	return s.teams.ListByDivision(ctx, saveID, division)
}

// GetTeam returns a team, or nil if it does not exist.
func (s *Service) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	return s.teams.GetByID(ctx, id)
}

// TeamNames maps every team of a save to its name.
func (s *Service) TeamNames(ctx context.Context, saveID string) (map[int]string, error) {
	teams, err := s.teams.ListBySave(ctx, saveID)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names, nil
}

// SquadOf returns the players of a team.
func (s *Service) SquadOf(ctx context.Context, teamID int) ([]*models.Player, error) {
	return s.players.ListByTeam(ctx, teamID)
}

// PlayerPositions returns the position of each known player.
func (s *Service) PlayerPositions(ctx context.Context, ids []int) (map[int]models.Position, error) {
	return s.players.Positions(ctx, ids)
}

// PlayerProfiles returns display metadata of each known player.
func (s *Service) PlayerProfiles(ctx context.Context, ids []int) (map[int]*models.PlayerProfile, error) {
	return s.players.Profiles(ctx, ids)
}

// Matchdays

// GetMatchday returns a matchday, or nil if it does not exist.
func (s *Service) GetMatchday(ctx context.Context, id int) (*models.Matchday, error) {
	return s.matchdays.GetByID(ctx, id)
}

// ListMatchdays returns a save's matchdays matching filter.
func (s *Service) ListMatchdays(ctx context.Context, saveID string, filter models.MatchdayFilter) ([]*models.Matchday, error) {
	return s.matchdays.List(ctx, saveID, filter)
}

// MarkMatchdayPlayed flips a matchday to played, reporting whether it changed.
func (s *Service) MarkMatchdayPlayed(ctx context.Context, id int) (bool, error) {
	return s.matchdays.MarkPlayed(ctx, id)
}

// MaxSeason returns the highest season scheduled in a save, or 0.
func (s *Service) MaxSeason(ctx context.Context, saveID string) (int, error) {
	return s.matchdays.MaxSeason(ctx, saveID)
}

// LatestMatchday returns the last matchday of a type in a season, or nil.
func (s *Service) LatestMatchday(ctx context.Context, saveID string, season int, matchdayType models.MatchdayType) (*models.Matchday, error) {
	return s.matchdays.Latest(ctx, saveID, season, matchdayType)
}

// CreateRounds writes matchdays and their matches in one transaction.
// Matchday IDs are filled in on every match before it is inserted. On
// failure every ID assigned by the rolled back inserts is cleared again.
func (s *Service) CreateRounds(ctx context.Context, rounds []models.ScheduledRound) error {
	now := time.Now().UTC()
	err := s.db.WithTransaction(ctx, func(tx *Tx) error {
		for _, round := range rounds {
			if round.Matchday.CreatedAt.IsZero() {
				round.Matchday.CreatedAt = now
			}
			if err := tx.Matchdays.Create(ctx, round.Matchday); err != nil {
				return err
			}
			for _, match := range round.Matches {
				match.MatchdayID = round.Matchday.ID
				if match.CreatedAt.IsZero() {
					match.CreatedAt = now
				}
				if err := tx.Matches.Create(ctx, match); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		for _, round := range rounds {
			round.Matchday.ID = 0
			for _, match := range round.Matches {
				match.ID = 0
				match.MatchdayID = 0
			}
		}
	}
	return err
}

// SetCurrentSeason moves a save to a new season.
func (s *Service) SetCurrentSeason(ctx context.Context, saveID string, season int) error {
	return s.saves.SetCurrentSeason(ctx, saveID, season)
}

// Matches

// GetMatch returns a match, or nil if it does not exist.
func (s *Service) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	return s.matches.GetByID(ctx, id)
}

// MatchSaveID returns the save owning a match, or "" if the match does not exist.
func (s *Service) MatchSaveID(ctx context.Context, matchID int) (string, error) {
	return s.matches.SaveIDOf(ctx, matchID)
}

// MatchesByMatchday returns the matches of one matchday.
func (s *Service) MatchesByMatchday(ctx context.Context, matchdayID int) ([]*models.Match, error) {
	return s.matches.ListByMatchday(ctx, matchdayID)
}

// MatchesByMatchdays returns the matches of several matchdays.
func (s *Service) MatchesByMatchdays(ctx context.Context, matchdayIDs []int) ([]*models.Match, error) {
	return s.matches.ListByMatchdays(ctx, matchdayIDs)
}

// MatchIDsBySave returns the IDs of every match in a save.
func (s *Service) MatchIDsBySave(ctx context.Context, saveID string) ([]int, error) {
	return s.matches.ListIDsBySave(ctx, saveID)
}

// CountMatches counts the matches of a matchday.
func (s *Service) CountMatches(ctx context.Context, matchdayID int) (int, error) {
	return s.matches.CountByMatchday(ctx, matchdayID)
}

// RecordResult stores a final score reported by the match simulator.
func (s *Service) RecordResult(ctx context.Context, matchID, homeGoals, awayGoals int) error {
	return s.matches.RecordResult(ctx, matchID, homeGoals, awayGoals)
}

// TeamResults returns a team's played matches, oldest first.
func (s *Service) TeamResults(ctx context.Context, saveID string, teamID int, season *int) ([]*models.Match, error) {
	return s.matches.ListPlayedByTeam(ctx, saveID, teamID, season)
}

// Events

// AppendEvent adds an entry to a match's event log.
func (s *Service) AppendEvent(ctx context.Context, event *models.MatchEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return s.events.Append(ctx, event)
}

// MatchEvents returns a match's event log in order.
func (s *Service) MatchEvents(ctx context.Context, matchID int) ([]*models.MatchEvent, error) {
	return s.events.ListByMatch(ctx, matchID)
}

// EventGoalTotals counts GOAL events per player.
func (s *Service) EventGoalTotals(ctx context.Context, q models.ScorerQuery) ([]models.GoalTally, error) {
	return s.events.GoalTotals(ctx, q)
}

// Player match stats

// ReplaceMatchStats overwrites every projected stat row of a match in one transaction.
func (s *Service) ReplaceMatchStats(ctx context.Context, matchID int, stats []*models.PlayerMatchStat) error {
	return s.db.WithTransaction(ctx, func(tx *Tx) error {
		if err := tx.Stats.DeleteByMatch(ctx, matchID); err != nil {
			return err
		}
		for _, stat := range stats {
			if stat.MatchID != matchID {
				return fmt.Errorf("stat for player %d belongs to match %d, not %d", stat.PlayerID, stat.MatchID, matchID)
			}
			if err := tx.Stats.Upsert(ctx, stat); err != nil {
				return err
			}
		}
		return nil
	})
}

// MatchStats returns the projected stat rows of a match.
func (s *Service) MatchStats(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error) {
	return s.stats.ListByMatch(ctx, matchID)
}

// StatGoalTotals sums projected goals per player.
func (s *Service) StatGoalTotals(ctx context.Context, q models.ScorerQuery) ([]models.GoalTally, error) {
	return s.stats.GoalTotals(ctx, q)
}
