package substitution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/fixtures"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

type memoryStore struct {
	mu     sync.Mutex
	states map[int]*models.MatchState
	puts   int
	putErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[int]*models.MatchState)}
}

func (m *memoryStore) Get(_ context.Context, matchID int) (*models.MatchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[matchID]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (m *memoryStore) Put(_ context.Context, state *models.MatchState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.states[state.MatchID] = state.Clone()
	return nil
}

func (m *memoryStore) Delete(_ context.Context, matchID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, matchID)
	return nil
}

type fakeEvents map[int][]*models.MatchEvent

func (f fakeEvents) MatchEvents(_ context.Context, matchID int) ([]*models.MatchEvent, error) {
	return f[matchID], nil
}

// fakeRoster reports the IDs in keepers as goalkeepers and everyone else as midfielders.
type fakeRoster struct {
	keepers map[int]bool
}

func (r fakeRoster) PlayerPositions(_ context.Context, ids []int) (map[int]models.Position, error) {
	out := make(map[int]models.Position, len(ids))
	for _, id := range ids {
		if r.keepers[id] {
			out[id] = models.PositionGoalkeeper
		} else {
			out[id] = models.PositionMidfielder
		}
	}
	return out, nil
}

// squad returns n consecutive player IDs starting at first.
func squad(first, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = first + i
	}
	return ids
}

func injury(matchID, minute, playerID int) *models.MatchEvent {
	return &models.MatchEvent{MatchID: matchID, Minute: minute, Type: models.EventInjury, PlayerID: &playerID}
}

const matchID = 1

// newTestEngine kicks off match 1 with home players 1..(11+homeBench) and
// away players 101..(111+awayBench). Players 1 and 101 are goalkeepers, plus
// any extra keepers given.
func newTestEngine(t *testing.T, homeBench, awayBench int, matchEvents []*models.MatchEvent, extraKeepers ...int) (*Engine, *memoryStore) {
	t.Helper()

	keepers := map[int]bool{1: true, 101: true}
	for _, id := range extraKeepers {
		keepers[id] = true
	}

	store := newMemoryStore()
	engine := NewEngine(store, fakeEvents{matchID: matchEvents}, fakeRoster{keepers: keepers}, WithRand(fixtures.NewRand(42)))

	_, err := engine.Kickoff(context.Background(), matchID, squad(1, 11+homeBench), squad(101, 11+awayBench))
	require.NoError(t, err)
	return engine, store
}

func assertInvariants(t *testing.T, state *models.MatchState) {
	t.Helper()
	for _, side := range models.Sides {
		s := state.Side(side)
		assert.LessOrEqual(t, s.SubstitutionsMade, MaxSubstitutions, "%s budget", side)

		seen := make(map[int]bool)
		for _, id := range s.Lineup {
			assert.False(t, seen[id], "%s lineup repeats player %d", side, id)
			seen[id] = true
		}
		for _, id := range s.Reserves {
			assert.False(t, seen[id], "%s player %d is both on the pitch and on the bench", side, id)
			seen[id] = true
		}
	}
}

func TestKickoff_SplitsLineupAndReserves(t *testing.T) {
	engine, _ := newTestEngine(t, 5, 0, nil)

	state, err := engine.State(context.Background(), matchID)
	require.NoError(t, err)

	assert.Equal(t, squad(1, 11), state.Home.Lineup)
	assert.Equal(t, squad(12, 5), state.Home.Reserves)
	assert.Len(t, state.Away.Lineup, 11)
	assert.Empty(t, state.Away.Reserves)
	assert.False(t, state.Paused)
}

func TestKickoff_ShortSquadPlaysShort(t *testing.T) {
	engine := NewEngine(newMemoryStore(), fakeEvents{}, fakeRoster{}, WithRand(fixtures.NewRand(1)))

	state, err := engine.Kickoff(context.Background(), 5, squad(1, 9), squad(50, 11))
	require.NoError(t, err)
	assert.Len(t, state.Home.Lineup, 9)
	assert.Empty(t, state.Home.Reserves)
}

func TestKickoff_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("already kicked off", func(t *testing.T) {
		engine, _ := newTestEngine(t, 3, 3, nil)
		_, err := engine.Kickoff(ctx, matchID, squad(1, 11), squad(101, 11))
		require.Error(t, err)
		assert.Equal(t, apperr.CodeStateExists, apperr.ConflictCode(err))
	})

	t.Run("player in both squads", func(t *testing.T) {
		engine := NewEngine(newMemoryStore(), fakeEvents{}, fakeRoster{})
		_, err := engine.Kickoff(ctx, 2, squad(1, 11), squad(11, 11))
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("empty squad", func(t *testing.T) {
		engine := NewEngine(newMemoryStore(), fakeEvents{}, fakeRoster{})
		_, err := engine.Kickoff(ctx, 2, nil, squad(1, 11))
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("two starting goalkeepers", func(t *testing.T) {
		engine := NewEngine(newMemoryStore(), fakeEvents{}, fakeRoster{keepers: map[int]bool{1: true, 2: true}})
		_, err := engine.Kickoff(ctx, 2, squad(1, 11), squad(101, 11))
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestSubstitute_ReplacesInPlace(t *testing.T) {
	engine, store := newTestEngine(t, 3, 0, nil)
	ctx := context.Background()

	state, err := engine.Substitute(ctx, matchID, models.SideHome, 5, 13)
	require.NoError(t, err)

	assert.Equal(t, 13, state.Home.Lineup[4], "incoming player takes the outgoing slot")
	assert.Equal(t, []int{12, 14, 5}, state.Home.Reserves)
	assert.Equal(t, 1, state.Home.SubstitutionsMade)
	assert.Equal(t, 0, state.Away.SubstitutionsMade)
	assertInvariants(t, state)

	stored, err := store.Get(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, state.Home, stored.Home)
}

func TestSubstitute_FourthSubstitutionFails(t *testing.T) {
	engine, store := newTestEngine(t, 5, 0, nil)
	ctx := context.Background()

	for i, pair := range [][2]int{{2, 12}, {3, 13}, {4, 14}} {
		state, err := engine.Substitute(ctx, matchID, models.SideHome, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, i+1, state.Home.SubstitutionsMade)
		assertInvariants(t, state)
	}

	before, err := store.Get(ctx, matchID)
	require.NoError(t, err)
	putsBefore := store.puts

	_, err = engine.Substitute(ctx, matchID, models.SideHome, 5, 15)
	require.Error(t, err)
	assert.True(t, apperr.IsStateConflict(err))
	assert.Equal(t, apperr.CodeSubBudgetExhausted, apperr.ConflictCode(err))

	after, err := store.Get(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "state must be unchanged")
	assert.Equal(t, putsBefore, store.puts)
}

func TestSubstitute_Conflicts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		side  models.Side
		out   int
		in    int
		code  string
		extra []int
	}{
		{name: "out player on bench", side: models.SideHome, out: 12, in: 13, code: apperr.CodeInvalidOutPlayer},
		{name: "out player from other side", side: models.SideHome, out: 102, in: 12, code: apperr.CodeInvalidOutPlayer},
		{name: "in player on pitch", side: models.SideHome, out: 2, in: 3, code: apperr.CodeInvalidInPlayer},
		{name: "in player unknown", side: models.SideAway, out: 102, in: 999, code: apperr.CodeInvalidInPlayer},
		{name: "second goalkeeper", side: models.SideHome, out: 2, in: 12, code: apperr.CodeSecondGoalkeeper, extra: []int{12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store := newTestEngine(t, 3, 3, nil, tt.extra...)
			before, _ := store.Get(ctx, matchID)

			_, err := engine.Substitute(ctx, matchID, tt.side, tt.out, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.ConflictCode(err))

			after, _ := store.Get(ctx, matchID)
			assert.Equal(t, before, after)
		})
	}
}

func TestSubstitute_KeeperForKeeperAllowed(t *testing.T) {
	engine, _ := newTestEngine(t, 3, 0, nil, 12)

	state, err := engine.Substitute(context.Background(), matchID, models.SideHome, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, state.Home.Lineup[0])
}

func TestSubstitute_NoActiveState(t *testing.T) {
	engine := NewEngine(newMemoryStore(), fakeEvents{}, fakeRoster{})

	_, err := engine.Substitute(context.Background(), 77, models.SideAway, 1, 2)
	require.Error(t, err)
	assert.True(t, apperr.IsNoActiveState(err))
}

func TestSubstitute_InvalidSide(t *testing.T) {
	engine, _ := newTestEngine(t, 1, 1, nil)

	_, err := engine.Substitute(context.Background(), matchID, models.Side("bench"), 2, 12)
	assert.True(t, apperr.IsValidation(err))
}

func TestSubstitute_StoreFailureLeavesStateUntouched(t *testing.T) {
	engine, store := newTestEngine(t, 2, 0, nil)
	ctx := context.Background()
	before, _ := store.Get(ctx, matchID)

	store.putErr = errors.New("disk full")
	_, err := engine.Substitute(ctx, matchID, models.SideHome, 2, 12)
	require.Error(t, err)
	assert.False(t, apperr.IsStateConflict(err))

	store.putErr = nil
	after, _ := store.Get(ctx, matchID)
	assert.Equal(t, before, after)
}

func TestRunAutomaticSubstitutions_InjuryScenario(t *testing.T) {
	engine, _ := newTestEngine(t, 1, 0, []*models.MatchEvent{injury(matchID, 30, 7)})

	state, swaps, err := engine.RunAutomaticSubstitutions(context.Background(), matchID)
	require.NoError(t, err)

	require.Len(t, swaps, 1)
	assert.Equal(t, Swap{Side: models.SideHome, OutPlayerID: 7, InPlayerID: 12, Injury: true}, swaps[0])
	assert.Equal(t, 12, state.Home.Lineup[6])
	assert.Equal(t, []int{7}, state.Home.Reserves)
	assert.Equal(t, 1, state.Home.SubstitutionsMade)
	assert.Equal(t, 0, state.Away.SubstitutionsMade)
	assertInvariants(t, state)
}

func TestRunAutomaticSubstitutions_InjuriesInEventOrderThenRandom(t *testing.T) {
	matchEvents := []*models.MatchEvent{
		injury(matchID, 20, 9),
		injury(matchID, 40, 4),
		injury(matchID, 41, 150), // not in this match
		injury(matchID, 60, 104),
	}
	engine, _ := newTestEngine(t, 5, 5, matchEvents)

	state, swaps, err := engine.RunAutomaticSubstitutions(context.Background(), matchID)
	require.NoError(t, err)

	var home []Swap
	for _, sw := range swaps {
		if sw.Side == models.SideHome {
			home = append(home, sw)
		}
	}
	require.Len(t, home, 3)
	assert.Equal(t, Swap{Side: models.SideHome, OutPlayerID: 9, InPlayerID: 12, Injury: true}, home[0])
	assert.Equal(t, Swap{Side: models.SideHome, OutPlayerID: 4, InPlayerID: 13, Injury: true}, home[1])
	assert.False(t, home[2].Injury)
	assert.Equal(t, 14, home[2].InPlayerID, "tactical swaps take the next reserve in order")

	assert.Equal(t, MaxSubstitutions, state.Home.SubstitutionsMade)
	assert.Equal(t, MaxSubstitutions, state.Away.SubstitutionsMade)
	assertInvariants(t, state)
}

func TestRunAutomaticSubstitutions_NeverBringsBackSubbedOffPlayers(t *testing.T) {
	engine, _ := newTestEngine(t, 2, 0, nil)

	state, swaps, err := engine.RunAutomaticSubstitutions(context.Background(), matchID)
	require.NoError(t, err)

	assert.Len(t, swaps, 2, "only two fresh reserves exist")
	assert.Equal(t, 2, state.Home.SubstitutionsMade)
	for _, sw := range swaps {
		assert.Contains(t, []int{12, 13}, sw.InPlayerID)
	}
	assertInvariants(t, state)
}

func TestRunAutomaticSubstitutions_RespectsGoalkeeperRule(t *testing.T) {
	// The only reserve is a goalkeeper, so only the starting keeper may make way for him.
	engine, _ := newTestEngine(t, 1, 0, []*models.MatchEvent{injury(matchID, 10, 5)}, 12)

	state, swaps, err := engine.RunAutomaticSubstitutions(context.Background(), matchID)
	require.NoError(t, err)

	for _, sw := range swaps {
		assert.Equal(t, 1, sw.OutPlayerID, "reserve keeper can only replace the starting keeper")
	}
	keepers := 0
	for _, id := range state.Home.Lineup {
		if id == 1 || id == 12 {
			keepers++
		}
	}
	assert.Equal(t, 1, keepers)
	assertInvariants(t, state)
}

func TestRunAutomaticSubstitutions_SkipsSpentSides(t *testing.T) {
	engine, store := newTestEngine(t, 5, 0, nil)
	ctx := context.Background()

	for _, pair := range [][2]int{{2, 12}, {3, 13}, {4, 14}} {
		_, err := engine.Substitute(ctx, matchID, models.SideHome, pair[0], pair[1])
		require.NoError(t, err)
	}
	putsBefore := store.puts

	state, swaps, err := engine.RunAutomaticSubstitutions(ctx, matchID)
	require.NoError(t, err)
	assert.Empty(t, swaps)
	assert.Equal(t, MaxSubstitutions, state.Home.SubstitutionsMade)
	assert.Equal(t, putsBefore, store.puts, "nothing to persist")
}

func TestRunAutomaticSubstitutions_Reproducible(t *testing.T) {
	run := func() []Swap {
		engine, _ := newTestEngine(t, 7, 7, nil)
		_, swaps, err := engine.RunAutomaticSubstitutions(context.Background(), matchID)
		require.NoError(t, err)
		return swaps
	}
	assert.Equal(t, run(), run())
}

func TestPauseResume(t *testing.T) {
	engine, _ := newTestEngine(t, 1, 1, nil)
	ctx := context.Background()

	state, err := engine.Pause(ctx, matchID)
	require.NoError(t, err)
	assert.True(t, state.Paused)

	before := state.Clone()
	state, err = engine.ResumeMatch(ctx, matchID)
	require.NoError(t, err)
	assert.False(t, state.Paused)
	assert.Equal(t, before.Home, state.Home, "resume has no other effect")
	assert.Equal(t, before.Away, state.Away)

	_, err = engine.ResumeMatch(ctx, 404)
	assert.True(t, apperr.IsNoActiveState(err))
}

func TestEndMatch(t *testing.T) {
	engine, store := newTestEngine(t, 1, 1, nil)
	ctx := context.Background()

	final, err := engine.EndMatch(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, matchID, final.MatchID)

	got, _ := store.Get(ctx, matchID)
	assert.Nil(t, got)

	_, err = engine.State(ctx, matchID)
	assert.True(t, apperr.IsNoActiveState(err))
}

type countingObserver struct {
	mu    sync.Mutex
	types []string
}

func (o *countingObserver) OnEvent(e events.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.types = append(o.types, e.Type)
	return nil
}
func (o *countingObserver) GetName() string { return "counting" }

func (o *countingObserver) ShouldHandle(_ string) bool { return true }

func TestEngine_DispatchesEvents(t *testing.T) {
	dispatcher := events.NewEventDispatcher()
	obs := &countingObserver{}
	dispatcher.Register(obs)

	engine := NewEngine(newMemoryStore(), fakeEvents{}, fakeRoster{}, WithDispatcher(dispatcher), WithRand(fixtures.NewRand(3)))
	ctx := context.Background()

	_, err := engine.Kickoff(ctx, 9, squad(1, 12), squad(50, 11))
	require.NoError(t, err)
	_, err = engine.Substitute(ctx, 9, models.SideHome, 3, 12)
	require.NoError(t, err)

	assert.Equal(t, []string{events.TypeMatchKickoff, events.TypeMatchSubstitution}, obs.types)
}

func TestEngine_ConcurrentSubstitutionsKeepInvariants(t *testing.T) {
	engine, store := newTestEngine(t, 10, 10, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			side := models.Sides[i%2]
			base := 1
			if side == models.SideAway {
				base = 101
			}
			// Many of these fail with conflicts; the point is that none corrupt the state.
			_, _ = engine.Substitute(ctx, matchID, side, base+1+i%10, base+11+i%10)
		}(i)
	}
	wg.Wait()

	state, err := store.Get(ctx, matchID)
	require.NoError(t, err)
	assertInvariants(t, state)
	assert.Equal(t, 0, engine.locks.size(), "idle locks are released")
}

func TestEngine_WithClockStampsTransitions(t *testing.T) {
	kickoff := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	now := kickoff
	store := newMemoryStore()
	engine := NewEngine(store, fakeEvents{}, fakeRoster{keepers: map[int]bool{1: true, 101: true}},
		WithRand(fixtures.NewRand(1)), WithClock(func() time.Time { return now }))

	ctx := context.Background()
	state, err := engine.Kickoff(ctx, matchID, squad(1, 14), squad(101, 14))
	require.NoError(t, err)
	assert.Equal(t, kickoff, state.UpdatedAt)

	now = kickoff.Add(60 * time.Minute)
	state, err = engine.Substitute(ctx, matchID, models.SideHome, 5, 12)
	require.NoError(t, err)
	assert.Equal(t, now, state.UpdatedAt)
}
