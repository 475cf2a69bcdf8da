package matchday

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/standings"
	"github.com/ramonehamilton/season-engine/internal/stats"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

type fakeStandings struct {
	result *standings.FinalizeResult
	err    error
	calls  int
}

func (f *fakeStandings) FinalizeMatchday(context.Context, string, int) (*standings.FinalizeResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeProjector struct {
	projected []int
	err       error
}

func (f *fakeProjector) ProjectMatchday(_ context.Context, matchdayID int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.projected = append(f.projected, matchdayID)
	return 4, nil
}

type captureObserver struct {
	got []events.MatchdayFinalizedEvent
}

func (o *captureObserver) OnEvent(e events.Event) error {
	if p, ok := events.GetTypedData[events.MatchdayFinalizedEvent](e); ok {
		o.got = append(o.got, p)
	}
	return nil
}

func (o *captureObserver) GetName() string { return "capture" }

func (o *captureObserver) ShouldHandle(string) bool { return true }

func TestFinalize_Summary(t *testing.T) {
	table := []models.StandingRow{{Position: 1, TeamID: 7, Points: 3}}
	agg := &fakeStandings{result: &standings.FinalizeResult{MatchCount: 4, Standings: table}}
	d := events.NewEventDispatcher()
	obs := &captureObserver{}
	d.Register(obs)

	f := NewFinalizer(agg, nil, Options{}, d)
	summary, err := f.Finalize(context.Background(), "save-1", 12)
	require.NoError(t, err)

	assert.Equal(t, &Summary{
		SaveID:           "save-1",
		MatchdayID:       12,
		MatchesFinalized: 4,
		StandingsPreview: table,
	}, summary)
	assert.Equal(t, []events.MatchdayFinalizedEvent{{SaveID: "save-1", MatchdayID: 12, MatchesFinalized: 4}}, obs.got)
}

func TestFinalize_ProjectsWhenConfigured(t *testing.T) {
	agg := &fakeStandings{result: &standings.FinalizeResult{MatchCount: 4}}
	proj := &fakeProjector{}

	summary, err := NewFinalizer(agg, proj, Options{ProjectOnFinalize: true}, nil).Finalize(context.Background(), "save-1", 12)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.StatsProjected)
	assert.Equal(t, []int{12}, proj.projected)

	proj.projected = nil
	_, err = NewFinalizer(agg, proj, Options{}, nil).Finalize(context.Background(), "save-1", 12)
	require.NoError(t, err)
	assert.Empty(t, proj.projected)
}

func TestFinalize_Errors(t *testing.T) {
	conflict := apperr.Conflict(apperr.CodeMatchdayNotInSave, "nope")
	proj := &fakeProjector{}
	f := NewFinalizer(&fakeStandings{err: conflict}, proj, Options{ProjectOnFinalize: true}, nil)

	_, err := f.Finalize(context.Background(), "save-1", 12)
	assert.Equal(t, apperr.CodeMatchdayNotInSave, apperr.ConflictCode(err))
	assert.Empty(t, proj.projected, "a rejected round is not projected")

	failing := NewFinalizer(&fakeStandings{result: &standings.FinalizeResult{}}, &fakeProjector{err: errors.New("boom")}, Options{ProjectOnFinalize: true}, nil)
	_, err = failing.Finalize(context.Background(), "save-1", 12)
	assert.ErrorContains(t, err, "boom")
}

func TestFinalize_WithStorage(t *testing.T) {
	ctx := context.Background()
	svc := storage.NewService(storage.NewTestDB(t))

	save, err := svc.CreateSave(ctx, "Career")
	require.NoError(t, err)
	var teams []int
	for _, name := range []string{"Benfica", "Sporting"} {
		team := &models.Team{SaveID: save.ID, Name: name, Division: models.DivisionD1, Rating: 60, Morale: 50}
		require.NoError(t, svc.CreateTeam(ctx, team))
		teams = append(teams, team.ID)
	}
	md := &models.Matchday{SaveID: save.ID, Number: 1, Type: models.MatchdayLeague, Season: 1}
	match := &models.Match{HomeTeamID: teams[0], AwayTeamID: teams[1]}
	require.NoError(t, svc.CreateRounds(ctx, []models.ScheduledRound{{Matchday: md, Matches: []*models.Match{match}}}))
	require.NoError(t, svc.RecordResult(ctx, match.ID, 0, 1))
	scorer := 42
	require.NoError(t, svc.AppendEvent(ctx, &models.MatchEvent{MatchID: match.ID, Minute: 61, Type: models.EventGoal, PlayerID: &scorer}))

	f := NewFinalizer(standings.NewAggregator(svc), stats.NewProjector(svc, stats.Options{}, nil), Options{ProjectOnFinalize: true}, nil)

	summary, err := f.Finalize(ctx, save.ID, md.ID)
	require.NoError(t, err)
	assert.False(t, summary.AlreadyPlayed)
	assert.Equal(t, 1, summary.MatchesFinalized)
	assert.Equal(t, 1, summary.StatsProjected)
	require.Len(t, summary.StandingsPreview, 2)
	assert.Equal(t, "Sporting", summary.StandingsPreview[0].TeamName)

	rows, err := svc.MatchStats(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Goals)

	again, err := f.Finalize(ctx, save.ID, md.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyPlayed)
	assert.Equal(t, summary.StandingsPreview, again.StandingsPreview)
}
