package goldenboot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/stats"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

const ghostPlayer = 9999

type fixture struct {
	svc     *storage.Service
	saveID  string
	players map[string]int
	matches []int
}

// seedScorers builds a save with two teams, three matches and their goal events:
//
//	season 1 league: Silva 2, Costa 1, ghost 1, plus an unattributed goal
//	season 1 cup:    Costa 2
//	season 2 league: Costa 1
func seedScorers(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	svc := storage.NewService(storage.NewTestDB(t))

	save, err := svc.CreateSave(ctx, "Career")
	require.NoError(t, err)
	f := &fixture{svc: svc, saveID: save.ID, players: map[string]int{}}

	var teamIDs []int
	for _, name := range []string{"Porto", "Braga"} {
		team := &models.Team{SaveID: save.ID, Name: name, Division: models.DivisionD1, Rating: 50, Morale: 50}
		require.NoError(t, svc.CreateTeam(ctx, team))
		teamIDs = append(teamIDs, team.ID)
	}
	for i, name := range []string{"Silva", "Costa"} {
		p := &models.Player{SaveID: save.ID, Name: name, Position: models.PositionAttacker, Rating: 70, Behavior: 3, ContractExpires: 3, TeamID: &teamIDs[i]}
		require.NoError(t, svc.CreatePlayer(ctx, p))
		f.players[name] = p.ID
	}

	schedule := []struct {
		season int
		typ    models.MatchdayType
		goals  []int
	}{
		{1, models.MatchdayLeague, []int{f.players["Silva"], f.players["Costa"], f.players["Silva"], ghostPlayer, 0}},
		{1, models.MatchdayCup, []int{f.players["Costa"], f.players["Costa"]}},
		{2, models.MatchdayLeague, []int{f.players["Costa"]}},
	}
	for i, s := range schedule {
		md := &models.Matchday{SaveID: save.ID, Number: i + 1, Type: s.typ, Season: s.season}
		match := &models.Match{HomeTeamID: teamIDs[0], AwayTeamID: teamIDs[1]}
		require.NoError(t, svc.CreateRounds(ctx, []models.ScheduledRound{{Matchday: md, Matches: []*models.Match{match}}}))
		f.matches = append(f.matches, match.ID)

		for minute, scorer := range s.goals {
			ev := &models.MatchEvent{MatchID: match.ID, Minute: 10 * (minute + 1), Type: models.EventGoal}
			if scorer != 0 {
				ev.PlayerID = &scorer
			}
			require.NoError(t, svc.AppendEvent(ctx, ev))
		}
		yellow := f.players["Silva"]
		require.NoError(t, svc.AppendEvent(ctx, &models.MatchEvent{MatchID: match.ID, Minute: 89, Type: models.EventYellow, PlayerID: &yellow}))
	}
	return f
}

func names(board *Leaderboard) []string {
	out := make([]string, len(board.Scorers))
	for i, s := range board.Scorers {
		out[i] = s.PlayerName
	}
	return out
}

func TestTopScorers_FallsBackToEvents(t *testing.T) {
	f := seedScorers(t)
	ranker := NewRanker(f.svc)
	season := 1

	board, err := ranker.TopScorers(context.Background(), f.saveID, &season, models.ScopeAll, 0)
	require.NoError(t, err)

	assert.Equal(t, SourceEvents, board.Source)
	assert.Equal(t, []string{"Costa", "Silva", UnknownPlayerName(ghostPlayer)}, names(board))
	assert.Equal(t, []int{3, 2, 1}, []int{board.Scorers[0].Goals, board.Scorers[1].Goals, board.Scorers[2].Goals})
	for i, s := range board.Scorers {
		assert.Equal(t, i+1, s.Rank)
	}
	assert.Equal(t, "Braga", board.Scorers[0].TeamName)
	assert.Equal(t, models.PositionAttacker, board.Scorers[0].Position)
	assert.Nil(t, board.Scorers[2].TeamID)
}

func TestTopScorers_FallbackMatchesProjection(t *testing.T) {
	f := seedScorers(t)
	ctx := context.Background()
	ranker := NewRanker(f.svc)

	type query struct {
		name   string
		season *int
		scope  models.Scope
		limit  int
	}
	one, two := 1, 2
	queries := []query{
		{"season 1 all", &one, models.ScopeAll, 10},
		{"season 1 league", &one, models.ScopeLeague, 10},
		{"season 1 cup", &one, models.ScopeCup, 10},
		{"season 2", &two, models.ScopeAll, 10},
		{"latest season", nil, models.ScopeAll, 10},
		{"truncated", &one, models.ScopeAll, 2},
	}

	fromEvents := make(map[string]*Leaderboard)
	for _, q := range queries {
		board, err := ranker.TopScorers(ctx, f.saveID, q.season, q.scope, q.limit)
		require.NoError(t, err)
		require.Equal(t, SourceEvents, board.Source, q.name)
		fromEvents[q.name] = board
	}
	historicalEvents, err := ranker.HistoricalTopScorers(ctx, f.saveID, models.ScopeAll, 10)
	require.NoError(t, err)

	n, err := stats.NewProjector(f.svc, stats.Options{}, nil).ProjectSave(ctx, f.saveID)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	for _, q := range queries {
		board, err := ranker.TopScorers(ctx, f.saveID, q.season, q.scope, q.limit)
		require.NoError(t, err)
		assert.Equal(t, SourceStats, board.Source, q.name)
		assert.Equal(t, fromEvents[q.name].Scorers, board.Scorers, q.name)
	}
	historicalStats, err := ranker.HistoricalTopScorers(ctx, f.saveID, models.ScopeAll, 10)
	require.NoError(t, err)
	assert.Equal(t, historicalEvents.Scorers, historicalStats.Scorers)
}

func TestTopScorers_DefaultsToLatestSeason(t *testing.T) {
	f := seedScorers(t)
	ranker := NewRanker(f.svc)

	board, err := ranker.TopScorers(context.Background(), f.saveID, nil, models.ScopeAll, 5)
	require.NoError(t, err)

	require.NotNil(t, board.Season)
	assert.Equal(t, 2, *board.Season)
	assert.Equal(t, []string{"Costa"}, names(board))
}

func TestTopScorers_EmptySaveUsesSeasonOne(t *testing.T) {
	ctx := context.Background()
	svc := storage.NewService(storage.NewTestDB(t))
	save, err := svc.CreateSave(ctx, "Empty")
	require.NoError(t, err)

	board, err := NewRanker(svc).TopScorers(ctx, save.ID, nil, models.ScopeAll, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, *board.Season)
	assert.Empty(t, board.Scorers)
}

func TestHistoricalTopScorers(t *testing.T) {
	f := seedScorers(t)
	ranker := NewRanker(f.svc)

	board, err := ranker.HistoricalTopScorers(context.Background(), f.saveID, models.ScopeLeague, 0)
	require.NoError(t, err)

	assert.Nil(t, board.Season)
	// Costa and Silva both have 2 league goals; the lower player ID ranks first.
	assert.Equal(t, []string{"Silva", "Costa", UnknownPlayerName(ghostPlayer)}, names(board))
}

func TestTopScorers_Errors(t *testing.T) {
	f := seedScorers(t)
	ranker := NewRanker(f.svc)
	ctx := context.Background()

	_, err := ranker.TopScorers(ctx, "missing", nil, models.ScopeAll, 0)
	assert.True(t, apperr.IsNotFound(err))

	_, err = ranker.HistoricalTopScorers(ctx, f.saveID, "friendly", 0)
	assert.True(t, apperr.IsValidation(err))
}
