// Package schedule persists generated fixtures as matchdays and matches.
package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/fixtures"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// Store is the persistence the scheduler needs.
type Store interface {
	GetSave(ctx context.Context, id string) (*models.Save, error)
	TeamsBySave(ctx context.Context, saveID string) ([]*models.Team, error)
	TeamsByDivision(ctx context.Context, saveID, division string) ([]*models.Team, error)
	ListMatchdays(ctx context.Context, saveID string, filter models.MatchdayFilter) ([]*models.Matchday, error)
	LatestMatchday(ctx context.Context, saveID string, season int, matchdayType models.MatchdayType) (*models.Matchday, error)
	MatchesByMatchday(ctx context.Context, matchdayID int) ([]*models.Match, error)
	CreateRounds(ctx context.Context, rounds []models.ScheduledRound) error
}

// Calendar places matchday numbers on dates.
type Calendar struct {
	// SeasonStart is the kickoff date of matchday 1.
	SeasonStart time.Time
	// Interval separates consecutive matchday numbers.
	Interval time.Duration
}

// DefaultCalendar plays one matchday a week from the first of August.
func DefaultCalendar() Calendar {
	return Calendar{
		SeasonStart: time.Date(time.Now().Year(), time.August, 1, 18, 0, 0, 0, time.UTC),
		Interval:    7 * 24 * time.Hour,
	}
}

// DateOf returns the kickoff time of a matchday number.
func (c Calendar) DateOf(number int) time.Time {
	return c.SeasonStart.Add(time.Duration(number-1) * c.Interval)
}

// Scheduler writes league and cup schedules for a save.
type Scheduler struct {
	store      Store
	rng        fixtures.Rand
	calendar   Calendar
	dispatcher *events.EventDispatcher
}

// NewScheduler creates a scheduler. A nil rng uses a clock-seeded source.
func NewScheduler(store Store, rng fixtures.Rand, calendar Calendar, dispatcher *events.EventDispatcher) *Scheduler {
	if rng == nil {
		rng = fixtures.DefaultRand()
	}
	return &Scheduler{store: store, rng: rng, calendar: calendar, dispatcher: dispatcher}
}

// ScheduleLeague draws the double round-robin of one division for a season.
func (s *Scheduler) ScheduleLeague(ctx context.Context, saveID string, season int, division string) ([]models.ScheduledRound, error) {
	if !models.ValidDivision(division) {
		return nil, apperr.Validation("division", "unknown division %q", division)
	}
	if err := s.prepare(ctx, saveID, season); err != nil {
		return nil, err
	}

	league := models.MatchdayLeague
	existing, err := s.store.ListMatchdays(ctx, saveID, models.MatchdayFilter{Season: &season, Type: &league, Division: &division})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing schedule: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperr.Conflict(apperr.CodeScheduleExists, "season %d of division %s is already scheduled", season, division)
	}

	teams, err := s.store.TeamsByDivision(ctx, saveID, division)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams of %s: %w", division, err)
	}

	drawn, err := fixtures.GenerateLeague(teamIDs(teams), s.rng)
	if err != nil {
		return nil, err
	}

	byMatchday := make(map[int][]fixtures.Fixture)
	for _, f := range drawn {
		byMatchday[f.Matchday] = append(byMatchday[f.Matchday], f)
	}
	rounds := make([]models.ScheduledRound, 0, fixtures.LeagueMatchdays)
	for number := 1; number <= fixtures.LeagueMatchdays; number++ {
		div := division
		md := &models.Matchday{SaveID: saveID, Number: number, Type: models.MatchdayLeague, Season: season, Division: &div}
		rounds = append(rounds, s.round(md, byMatchday[number]))
	}

	if err := s.store.CreateRounds(ctx, rounds); err != nil {
		return nil, fmt.Errorf("failed to store league schedule: %w", err)
	}

	log.Printf("[Scheduler] Scheduled %s season %d for save %s: %d matchdays, %d matches",
		division, season, saveID, len(rounds), len(drawn))
	s.dispatch(ctx, events.ScheduleCreatedEvent{
		SaveID: saveID, Season: season, Type: models.MatchdayLeague, Division: division,
		Matchdays: len(rounds), Matches: len(drawn),
	})
	return rounds, nil
}

// ScheduleCup draws the cup of a season from every team of the save.
// Eager mode writes all rounds at once, advancing the home side of every
// tie as a placeholder. Otherwise only the first round is written and later
// rounds come from AdvanceCup.
func (s *Scheduler) ScheduleCup(ctx context.Context, saveID string, season int, eager bool) ([]models.ScheduledRound, error) {
	if err := s.prepare(ctx, saveID, season); err != nil {
		return nil, err
	}

	cup := models.MatchdayCup
	existing, err := s.store.ListMatchdays(ctx, saveID, models.MatchdayFilter{Season: &season, Type: &cup})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing cup: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperr.Conflict(apperr.CodeScheduleExists, "the cup of season %d is already drawn", season)
	}

	teams, err := s.store.TeamsBySave(ctx, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	var cupRounds []fixtures.CupRound
	if eager {
		cupRounds, err = fixtures.GenerateCup(teamIDs(teams), s.rng)
	} else {
		var first fixtures.CupRound
		first, err = fixtures.FirstCupRound(teamIDs(teams), s.rng)
		cupRounds = []fixtures.CupRound{first}
	}
	if err != nil {
		return nil, err
	}

	rounds := make([]models.ScheduledRound, len(cupRounds))
	matches := 0
	for i, cr := range cupRounds {
		rounds[i] = s.cupRound(saveID, season, cr)
		matches += len(cr.Ties)
	}

	if err := s.store.CreateRounds(ctx, rounds); err != nil {
		return nil, fmt.Errorf("failed to store cup schedule: %w", err)
	}

	log.Printf("[Scheduler] Drew cup season %d for save %s: %d rounds, %d ties (eager: %v)",
		season, saveID, len(rounds), matches, eager)
	s.dispatch(ctx, events.ScheduleCreatedEvent{
		SaveID: saveID, Season: season, Type: models.MatchdayCup,
		Matchdays: len(rounds), Matches: matches,
	})
	return rounds, nil
}

// AdvanceCup writes the next cup round from the recorded results of the
// latest one. The latest round must be finalized and every tie decided.
func (s *Scheduler) AdvanceCup(ctx context.Context, saveID string, season int) (*models.ScheduledRound, error) {
	if err := s.prepare(ctx, saveID, season); err != nil {
		return nil, err
	}

	latest, err := s.store.LatestMatchday(ctx, saveID, season, models.MatchdayCup)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest cup round: %w", err)
	}
	if latest == nil {
		return nil, apperr.NotFound("cup schedule", fmt.Sprintf("%s/season-%d", saveID, season))
	}
	if !latest.IsPlayed {
		return nil, apperr.Conflict(apperr.CodeMatchdayNotPlayed, "cup matchday %d has not been finalized", latest.Number)
	}

	matches, err := s.store.MatchesByMatchday(ctx, latest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cup ties: %w", err)
	}

	previous := fixtures.CupRound{
		Round:    latest.Number / fixtures.CupMatchdayInterval,
		Matchday: latest.Number,
		Ties:     make([]fixtures.Fixture, len(matches)),
	}
	var results []fixtures.CupResult
	for i, m := range matches {
		previous.Ties[i] = fixtures.Fixture{Matchday: latest.Number, Home: m.HomeTeamID, Away: m.AwayTeamID}
		if m.IsPlayed && m.HomeGoals != nil && m.AwayGoals != nil {
			results = append(results, fixtures.CupResult{
				Home: m.HomeTeamID, Away: m.AwayTeamID,
				HomeGoals: *m.HomeGoals, AwayGoals: *m.AwayGoals,
			})
		}
	}

	next, err := fixtures.AdvanceCupRound(previous, results)
	if err != nil {
		return nil, err
	}

	round := s.cupRound(saveID, season, next)
	if err := s.store.CreateRounds(ctx, []models.ScheduledRound{round}); err != nil {
		return nil, fmt.Errorf("failed to store cup round %d: %w", next.Round, err)
	}

	log.Printf("[Scheduler] Cup season %d of save %s advanced to round %d (%d ties)", season, saveID, next.Round, len(next.Ties))
	s.dispatch(ctx, events.ScheduleCreatedEvent{
		SaveID: saveID, Season: season, Type: models.MatchdayCup,
		Matchdays: 1, Matches: len(next.Ties),
	})
	return &round, nil
}

func (s *Scheduler) prepare(ctx context.Context, saveID string, season int) error {
	if season < 1 {
		return apperr.Validation("season", "season must be positive, got %d", season)
	}
	save, err := s.store.GetSave(ctx, saveID)
	if err != nil {
		return fmt.Errorf("failed to load save %s: %w", saveID, err)
	}
	if save == nil {
		return apperr.NotFound("save", saveID)
	}
	return nil
}

func (s *Scheduler) cupRound(saveID string, season int, cr fixtures.CupRound) models.ScheduledRound {
	md := &models.Matchday{SaveID: saveID, Number: cr.Matchday, Type: models.MatchdayCup, Season: season}
	return s.round(md, cr.Ties)
}

func (s *Scheduler) round(md *models.Matchday, ties []fixtures.Fixture) models.ScheduledRound {
	kickoff := s.calendar.DateOf(md.Number)
	matches := make([]*models.Match, len(ties))
	for i, f := range ties {
		at := kickoff
		matches[i] = &models.Match{HomeTeamID: f.Home, AwayTeamID: f.Away, ScheduledAt: &at}
	}
	return models.ScheduledRound{Matchday: md, Matches: matches}
}

func (s *Scheduler) dispatch(ctx context.Context, payload events.ScheduleCreatedEvent) {
	events.Publish(s.dispatcher, ctx, events.TypeScheduleCreated, payload)
}

func teamIDs(teams []*models.Team) []int {
	ids := make([]int, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return ids
}
