package standings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

type seeded struct {
	svc    *storage.Service
	saveID string
	teams  []int
}

// seedSave creates a save with four D1 teams named A..D.
func seedSave(t *testing.T) *seeded {
	t.Helper()
	ctx := context.Background()
	svc := storage.NewService(storage.NewTestDB(t))

	save, err := svc.CreateSave(ctx, "Career")
	require.NoError(t, err)

	s := &seeded{svc: svc, saveID: save.ID}
	for _, name := range []string{"A", "B", "C", "D"} {
		team := &models.Team{SaveID: save.ID, Name: name, Division: models.DivisionD1, Rating: 50, Morale: 50}
		require.NoError(t, svc.CreateTeam(ctx, team))
		s.teams = append(s.teams, team.ID)
	}
	return s
}

// round schedules one matchday with the given pairings, recording a score for
// every pairing that has one. Scores are {homeGoals, awayGoals}.
func (s *seeded) round(t *testing.T, season, number int, typ models.MatchdayType, pairs [][2]int, scores [][2]int) *models.Matchday {
	t.Helper()
	ctx := context.Background()

	md := &models.Matchday{SaveID: s.saveID, Number: number, Type: typ, Season: season}
	if typ == models.MatchdayLeague {
		div := models.DivisionD1
		md.Division = &div
	}
	matches := make([]*models.Match, len(pairs))
	for i, p := range pairs {
		matches[i] = &models.Match{HomeTeamID: s.teams[p[0]], AwayTeamID: s.teams[p[1]]}
	}
	require.NoError(t, s.svc.CreateRounds(ctx, []models.ScheduledRound{{Matchday: md, Matches: matches}}))

	for i, sc := range scores {
		require.NoError(t, s.svc.RecordResult(ctx, matches[i].ID, sc[0], sc[1]))
	}
	return md
}

func TestAggregator_ComputeStandingsScenario(t *testing.T) {
	s := seedSave(t)
	ctx := context.Background()
	md := s.round(t, 1, 1, models.MatchdayLeague, [][2]int{{0, 1}}, [][2]int{{2, 1}})
	agg := NewAggregator(s.svc)

	rows, err := agg.ComputeStandings(ctx, s.saveID)
	require.NoError(t, err)
	assert.Empty(t, rows, "unplayed matchdays contribute nothing")

	_, err = s.svc.MarkMatchdayPlayed(ctx, md.ID)
	require.NoError(t, err)

	rows, err = agg.ComputeStandings(ctx, s.saveID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	home, away := rows[0], rows[1]
	assert.Equal(t, "A", home.TeamName)
	assert.Equal(t, 1, home.Played)
	assert.Equal(t, 1, home.Won)
	assert.Equal(t, 3, home.Points)
	assert.Equal(t, 2, home.GoalsFor)
	assert.Equal(t, 1, home.GoalsAgainst)

	assert.Equal(t, "B", away.TeamName)
	assert.Equal(t, 1, away.Played)
	assert.Equal(t, 1, away.Lost)
	assert.Equal(t, 0, away.Points)
	assert.Equal(t, 1, away.GoalsFor)
	assert.Equal(t, 2, away.GoalsAgainst)
}

func TestAggregator_ComputeStandingsFiltered(t *testing.T) {
	s := seedSave(t)
	ctx := context.Background()
	agg := NewAggregator(s.svc)

	league1 := s.round(t, 1, 1, models.MatchdayLeague, [][2]int{{0, 1}}, [][2]int{{1, 0}})
	cup1 := s.round(t, 1, 3, models.MatchdayCup, [][2]int{{2, 3}}, [][2]int{{0, 4}})
	league2 := s.round(t, 2, 1, models.MatchdayLeague, [][2]int{{1, 0}}, [][2]int{{5, 0}})
	for _, md := range []*models.Matchday{league1, cup1, league2} {
		_, err := s.svc.MarkMatchdayPlayed(ctx, md.ID)
		require.NoError(t, err)
	}

	all, err := agg.ComputeStandings(ctx, s.saveID)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	cup, err := agg.ComputeStandingsFiltered(ctx, s.saveID, Filter{Scope: models.ScopeCup})
	require.NoError(t, err)
	require.Len(t, cup, 2)
	assert.Equal(t, "D", cup[0].TeamName)

	season := 1
	league, err := agg.ComputeStandingsFiltered(ctx, s.saveID, Filter{Season: &season, Scope: models.ScopeLeague})
	require.NoError(t, err)
	require.Len(t, league, 2)
	assert.Equal(t, "A", league[0].TeamName)
	assert.Equal(t, 1, league[0].Played)

	_, err = agg.ComputeStandings(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAggregator_FinalizeMatchday(t *testing.T) {
	s := seedSave(t)
	ctx := context.Background()
	agg := NewAggregator(s.svc)
	md := s.round(t, 1, 1, models.MatchdayLeague, [][2]int{{0, 1}, {2, 3}}, [][2]int{{2, 1}, {0, 0}})

	first, err := agg.FinalizeMatchday(ctx, s.saveID, md.ID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyPlayed)
	assert.True(t, first.Matchday.IsPlayed)
	assert.Equal(t, 2, first.MatchCount)
	require.Len(t, first.Standings, 4)
	assert.Equal(t, "A", first.Standings[0].TeamName)

	second, err := agg.FinalizeMatchday(ctx, s.saveID, md.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyPlayed)
	assert.Equal(t, first.Standings, second.Standings)

	stored, err := s.svc.GetMatchday(ctx, md.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPlayed)
}

func TestAggregator_FinalizeMatchdayErrors(t *testing.T) {
	s := seedSave(t)
	ctx := context.Background()
	agg := NewAggregator(s.svc)
	md := s.round(t, 1, 1, models.MatchdayLeague, [][2]int{{0, 1}}, nil)

	_, err := agg.FinalizeMatchday(ctx, s.saveID, md.ID+100)
	assert.True(t, apperr.IsNotFound(err))

	other, err := s.svc.CreateSave(ctx, "Other")
	require.NoError(t, err)
	_, err = agg.FinalizeMatchday(ctx, other.ID, md.ID)
	assert.Equal(t, apperr.CodeMatchdayNotInSave, apperr.ConflictCode(err))

	stored, err := s.svc.GetMatchday(ctx, md.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPlayed, "a rejected finalize leaves the flag alone")
}

func TestAggregator_PointsProgression(t *testing.T) {
	s := seedSave(t)
	ctx := context.Background()
	agg := NewAggregator(s.svc)

	md1 := s.round(t, 1, 1, models.MatchdayLeague, [][2]int{{0, 1}, {2, 3}}, [][2]int{{1, 0}, {1, 1}})
	md2 := s.round(t, 1, 2, models.MatchdayLeague, [][2]int{{1, 0}}, [][2]int{{2, 0}})
	s.round(t, 1, 3, models.MatchdayLeague, [][2]int{{0, 2}}, nil) // not played yet
	for _, md := range []*models.Matchday{md1, md2} {
		_, err := agg.FinalizeMatchday(ctx, s.saveID, md.ID)
		require.NoError(t, err)
	}

	progression, err := agg.PointsProgression(ctx, s.saveID, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, progression.Matchdays)
	require.Len(t, progression.Teams, 4)
	points := make(map[string][]int)
	for _, tp := range progression.Teams {
		points[tp.TeamName] = tp.Points
	}
	assert.Equal(t, []int{3, 3}, points["A"])
	assert.Equal(t, []int{0, 3}, points["B"])
	assert.Equal(t, []int{1, 1}, points["C"], "a team without a match carries its total")
	assert.Equal(t, []int{1, 1}, points["D"])

	empty, err := agg.PointsProgression(ctx, s.saveID, 7, nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Matchdays)
	assert.Empty(t, empty.Teams)
}
