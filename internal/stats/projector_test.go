package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// fakeStore keeps projected rows per match, replacing them wholesale like the sqlite service does.
type fakeStore struct {
	saves     map[string]*models.Save
	matchdays map[int]*models.Matchday
	matches   map[int]*models.Match
	events    map[int][]*models.MatchEvent
	stats     map[int][]*models.PlayerMatchStat
	replaces  int
	replaceFn func(matchID int) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		saves:     map[string]*models.Save{"save-1": {ID: "save-1", CurrentSeason: 1}},
		matchdays: map[int]*models.Matchday{10: {ID: 10, SaveID: "save-1", Number: 1, Type: models.MatchdayLeague, Season: 1}},
		matches: map[int]*models.Match{
			1: {ID: 1, MatchdayID: 10, HomeTeamID: 100, AwayTeamID: 200},
			2: {ID: 2, MatchdayID: 10, HomeTeamID: 300, AwayTeamID: 400},
		},
		events: map[int][]*models.MatchEvent{},
		stats:  map[int][]*models.PlayerMatchStat{},
	}
}

func (s *fakeStore) GetSave(_ context.Context, id string) (*models.Save, error) {
	return s.saves[id], nil
}

func (s *fakeStore) GetMatch(_ context.Context, id int) (*models.Match, error) {
	return s.matches[id], nil
}

func (s *fakeStore) GetMatchday(_ context.Context, id int) (*models.Matchday, error) {
	return s.matchdays[id], nil
}

func (s *fakeStore) MatchesByMatchday(_ context.Context, matchdayID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, id := range []int{1, 2} {
		if m, ok := s.matches[id]; ok && m.MatchdayID == matchdayID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) MatchIDsBySave(_ context.Context, saveID string) ([]int, error) {
	if _, ok := s.saves[saveID]; !ok {
		return nil, nil
	}
	return []int{1, 2}, nil
}

func (s *fakeStore) MatchEvents(_ context.Context, matchID int) ([]*models.MatchEvent, error) {
	return s.events[matchID], nil
}

func (s *fakeStore) ReplaceMatchStats(_ context.Context, matchID int, rows []*models.PlayerMatchStat) error {
	if s.replaceFn != nil {
		if err := s.replaceFn(matchID); err != nil {
			return err
		}
	}
	s.replaces++
	copied := make([]*models.PlayerMatchStat, len(rows))
	for i, r := range rows {
		c := *r
		copied[i] = &c
	}
	s.stats[matchID] = copied
	return nil
}

func intPtr(v int) *int { return &v }

func event(id, matchID, minute int, typ models.EventType, player int) *models.MatchEvent {
	ev := &models.MatchEvent{ID: id, MatchID: matchID, Minute: minute, Type: typ}
	if player != 0 {
		ev.PlayerID = intPtr(player)
	}
	return ev
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestProjector(store *fakeStore, opts Options, d *events.EventDispatcher) *Projector {
	p := NewProjector(store, opts, d)
	p.now = fixedClock
	return p
}

func TestTally(t *testing.T) {
	matchLog := []*models.MatchEvent{
		event(1, 1, 10, models.EventGoal, 9),
		event(2, 1, 10, models.EventAssist, 8),
		event(3, 1, 30, models.EventYellow, 4),
		event(4, 1, 44, models.EventGoal, 9),
		event(5, 1, 50, models.EventInjury, 7),
		event(6, 1, 51, models.EventSub, 12),
		event(7, 1, 70, models.EventRed, 4),
		event(8, 1, 80, models.EventGoal, 0), // own goal with no scorer recorded
	}

	rows, err := Tally(1, matchLog, Options{})
	require.NoError(t, err)

	got := make(map[int]models.PlayerMatchStat)
	var order []int
	for _, r := range rows {
		got[r.PlayerID] = *r
		order = append(order, r.PlayerID)
	}

	assert.Equal(t, []int{4, 7, 8, 9, 12}, order)
	assert.Equal(t, 2, got[9].Goals)
	assert.Equal(t, 1, got[8].Assists)
	assert.Equal(t, 0, got[4].YellowCards, "bookings are not projected by default")
	assert.Equal(t, 1, got[4].RedCards)
	assert.Equal(t, 1, got[7].Injuries)
	assert.Equal(t, models.PlayerMatchStat{PlayerID: 12, MatchID: 1}, got[12])
}

func TestTally_YellowCardsOption(t *testing.T) {
	matchLog := []*models.MatchEvent{
		event(1, 1, 10, models.EventYellow, 4),
		event(2, 1, 60, models.EventYellow, 4),
	}

	rows, err := Tally(1, matchLog, Options{TallyYellowCards: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].YellowCards)
}

func TestTally_UnknownEventType(t *testing.T) {
	tests := []struct {
		name   string
		player int
	}{
		{name: "with player", player: 9},
		{name: "without player", player: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tally(1, []*models.MatchEvent{event(1, 1, 5, "OFFSIDE", tt.player)}, Options{})
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestTally_RejectsForeignEvents(t *testing.T) {
	_, err := Tally(1, []*models.MatchEvent{event(1, 2, 5, models.EventGoal, 9)}, Options{})
	assert.Error(t, err)
}

func TestProjectMatch_IsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.events[1] = []*models.MatchEvent{
		event(1, 1, 12, models.EventGoal, 9),
		event(2, 1, 40, models.EventGoal, 9),
		event(3, 1, 77, models.EventGoal, 21),
	}
	p := newTestProjector(store, Options{}, nil)
	ctx := context.Background()

	first, err := p.ProjectMatch(ctx, 1)
	require.NoError(t, err)
	afterFirst := store.stats[1]

	second, err := p.ProjectMatch(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, afterFirst, store.stats[1])
	require.Len(t, store.stats[1], 2)
	assert.Equal(t, 2, store.stats[1][0].Goals, "a rerun overwrites, it never increments")
	assert.Equal(t, fixedClock(), store.stats[1][0].UpdatedAt)
}

func TestProjectMatch_PicksUpNewEvents(t *testing.T) {
	store := newFakeStore()
	store.events[1] = []*models.MatchEvent{event(1, 1, 12, models.EventGoal, 9)}
	p := newTestProjector(store, Options{}, nil)
	ctx := context.Background()

	_, err := p.ProjectMatch(ctx, 1)
	require.NoError(t, err)

	store.events[1] = append(store.events[1], event(2, 1, 88, models.EventGoal, 9))
	rows, err := p.ProjectMatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Goals)
}

func TestProjectMatch_NotFound(t *testing.T) {
	p := newTestProjector(newFakeStore(), Options{}, nil)

	_, err := p.ProjectMatch(context.Background(), 99)
	assert.True(t, apperr.IsNotFound(err))
}

func TestProjectMatch_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.replaceFn = func(int) error { return errors.New("disk full") }
	p := newTestProjector(store, Options{}, nil)

	_, err := p.ProjectMatch(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestProjectMatchday(t *testing.T) {
	store := newFakeStore()
	store.events[1] = []*models.MatchEvent{event(1, 1, 12, models.EventGoal, 9)}
	store.events[2] = []*models.MatchEvent{event(2, 2, 30, models.EventGoal, 31)}
	p := newTestProjector(store, Options{}, nil)

	n, err := p.ProjectMatchday(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.stats[1], 1)
	assert.Len(t, store.stats[2], 1)

	_, err = p.ProjectMatchday(context.Background(), 11)
	assert.True(t, apperr.IsNotFound(err))
}

type recordingObserver struct {
	got []events.StatsProjectedEvent
}

func (o *recordingObserver) OnEvent(e events.Event) error {
	if payload, ok := events.GetTypedData[events.StatsProjectedEvent](e); ok {
		o.got = append(o.got, payload)
	}
	return nil
}

func (o *recordingObserver) GetName() string { return "recording" }

func (o *recordingObserver) ShouldHandle(eventType string) bool {
	return eventType == events.TypeStatsProjected
}

func TestProjectSave(t *testing.T) {
	store := newFakeStore()
	store.events[2] = []*models.MatchEvent{event(1, 2, 30, models.EventInjury, 31)}
	d := events.NewEventDispatcher()
	obs := &recordingObserver{}
	d.Register(obs)
	p := newTestProjector(store, Options{}, d)

	n, err := p.ProjectSave(context.Background(), "save-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, store.replaces)
	assert.Empty(t, store.stats[1])
	assert.Equal(t, []events.StatsProjectedEvent{{Scope: "save", ID: "save-1", Matches: 2}}, obs.got)

	_, err = p.ProjectSave(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}
