// Package substitution owns the live lineup state of matches in progress.
//
// All mutations of one match are serialised by a per-match mutex and applied
// to a copy of the stored state, which is written back with a single Put.
// A failed operation therefore never leaves a partially applied state.
package substitution

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

const (
	// MaxSubstitutions is the substitution budget of each side per match.
	MaxSubstitutions = 3

	// LineupSize is the number of players a side fields when it has enough.
	LineupSize = 11
)

// StateStore persists live match states.
type StateStore interface {
	// Get returns nil when the match has no live state.
	Get(ctx context.Context, matchID int) (*models.MatchState, error)
	Put(ctx context.Context, state *models.MatchState) error
	Delete(ctx context.Context, matchID int) error
}

// EventSource reads a match's event log in order.
type EventSource interface {
	MatchEvents(ctx context.Context, matchID int) ([]*models.MatchEvent, error)
}

// Roster resolves player positions. Unknown players are absent from the result.
type Roster interface {
	PlayerPositions(ctx context.Context, ids []int) (map[int]models.Position, error)
}

// Swap is one substitution applied by the engine.
type Swap struct {
	Side        models.Side `json:"side"`
	OutPlayerID int         `json:"out_player_id"`
	InPlayerID  int         `json:"in_player_id"`
	Injury      bool        `json:"injury"`
}

// Engine applies kickoff, substitution, pause and resume operations to live match states.
type Engine struct {
	store      StateStore
	events     EventSource
	roster     Roster
	rng        fixtures.Rand
	dispatcher *events.EventDispatcher
	locks      *keyedMutex
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used to pick players for tactical swaps.
func WithRand(rng fixtures.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithDispatcher publishes state changes through d.
func WithDispatcher(d *events.EventDispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a substitution engine.
func NewEngine(store StateStore, source EventSource, roster Roster, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		events: source,
		roster: roster,
		locks:  newKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = fixtures.DefaultRand()
	}
	return e
}

// Kickoff creates the live state of a match. The first LineupSize players of
// each squad start; the rest are reserves in the given order.
func (e *Engine) Kickoff(ctx context.Context, matchID int, homeSquad, awaySquad []int) (*models.MatchState, error) {
	unlock := e.locks.Lock(matchID)
	defer unlock()

	existing, err := e.store.Get(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match state: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(apperr.CodeStateExists, "match %d has already kicked off", matchID)
	}

	if err := validateSquads(homeSquad, awaySquad); err != nil {
		return nil, err
	}

	state := &models.MatchState{
		MatchID:   matchID,
		Home:      newSide(homeSquad),
		Away:      newSide(awaySquad),
		UpdatedAt: e.now(),
	}

	for _, side := range models.Sides {
		lineup := state.Side(side).Lineup
		positions, err := e.roster.PlayerPositions(ctx, lineup)
		if err != nil {
			return nil, fmt.Errorf("failed to load player positions: %w", err)
		}
		if n := countGoalkeepers(lineup, positions); n > 1 {
			return nil, apperr.Validation(string(side), "starting lineup fields %d goalkeepers", n)
		}
	}

	if err := e.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save match state: %w", err)
	}

	log.Printf("[SubstitutionEngine] Match %d kicked off (%d/%d home, %d/%d away)",
		matchID, len(state.Home.Lineup), len(state.Home.Reserves), len(state.Away.Lineup), len(state.Away.Reserves))
	e.dispatch(ctx, events.TypeMatchKickoff, events.MatchStateEvent{MatchID: matchID, State: state.Clone()})
	return state, nil
}

// State returns the live state of a match.
func (e *Engine) State(ctx context.Context, matchID int) (*models.MatchState, error) {
	state, err := e.store.Get(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match state: %w", err)
	}
	if state == nil {
		return nil, apperr.NoActiveState(matchID)
	}
	return state, nil
}

// Substitute replaces outID with inID on one side.
//
// It fails with a StateConflictError when the side has used its budget, outID
// is not on the pitch, inID is not on the bench, or the swap would put a second
// goalkeeper on the pitch. On failure the stored state is untouched.
func (e *Engine) Substitute(ctx context.Context, matchID int, side models.Side, outID, inID int) (*models.MatchState, error) {
	if _, err := models.ParseSide(string(side)); err != nil {
		return nil, apperr.Validation("side", "%v", err)
	}

	unlock := e.locks.Lock(matchID)
	defer unlock()

	current, err := e.State(ctx, matchID)
	if err != nil {
		return nil, err
	}

	state := current.Clone()
	s := state.Side(side)

	if s.SubstitutionsMade >= MaxSubstitutions {
		return nil, apperr.Conflict(apperr.CodeSubBudgetExhausted,
			"%s side has already made %d substitutions", side, s.SubstitutionsMade)
	}
	if !s.InLineup(outID) {
		return nil, apperr.Conflict(apperr.CodeInvalidOutPlayer, "player %d is not on the pitch for the %s side", outID, side)
	}
	if !s.InReserves(inID) {
		return nil, apperr.Conflict(apperr.CodeInvalidInPlayer, "player %d is not on the %s bench", inID, side)
	}

	positions, err := e.roster.PlayerPositions(ctx, append([]int{inID}, s.Lineup...))
	if err != nil {
		return nil, fmt.Errorf("failed to load player positions: %w", err)
	}
	if !keeperAllowed(s.Lineup, outID, inID, positions) {
		return nil, apperr.Conflict(apperr.CodeSecondGoalkeeper,
			"player %d is a goalkeeper and the %s side already has one on the pitch", inID, side)
	}

	s.Swap(outID, inID)
	state.UpdatedAt = e.now()

	if err := e.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save match state: %w", err)
	}

	log.Printf("[SubstitutionEngine] Match %d %s: %d off, %d on (%d/%d)",
		matchID, side, outID, inID, s.SubstitutionsMade, MaxSubstitutions)
	e.dispatch(ctx, events.TypeMatchSubstitution, events.SubstitutionEvent{
		MatchID:           matchID,
		Side:              side,
		OutPlayerID:       outID,
		InPlayerID:        inID,
		SubstitutionsMade: s.SubstitutionsMade,
	})
	return state, nil
}

// RunAutomaticSubstitutions lets the AI use each side's remaining budget.
//
// Per side: injured players still on the pitch are replaced first, in event
// order, by the first eligible reserve. Any budget left is then spent on
// randomly chosen lineup players. A reserve is eligible if it has not already
// been taken off and would not become a second goalkeeper. The state is
// written once, after both sides are processed.
func (e *Engine) RunAutomaticSubstitutions(ctx context.Context, matchID int) (*models.MatchState, []Swap, error) {
	unlock := e.locks.Lock(matchID)
	defer unlock()

	current, err := e.State(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}

	matchLog, err := e.events.MatchEvents(ctx, matchID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load match events: %w", err)
	}

	state := current.Clone()
	positions, err := e.roster.PlayerPositions(ctx, squadIDs(state))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load player positions: %w", err)
	}

	var swaps []Swap
	for _, side := range models.Sides {
		swaps = append(swaps, e.autoSubstituteSide(side, state.Side(side), matchLog, positions)...)
	}

	if len(swaps) == 0 {
		return current, nil, nil
	}

	state.UpdatedAt = e.now()
	if err := e.store.Put(ctx, state); err != nil {
		return nil, nil, fmt.Errorf("failed to save match state: %w", err)
	}

	log.Printf("[SubstitutionEngine] Match %d: %d automatic substitutions", matchID, len(swaps))

	summary := events.AutoSubstitutionsEvent{MatchID: matchID}
	for _, sw := range swaps {
		if sw.Side == models.SideHome {
			summary.Home++
		} else {
			summary.Away++
		}
		e.dispatch(ctx, events.TypeMatchSubstitution, events.SubstitutionEvent{
			MatchID:           matchID,
			Side:              sw.Side,
			OutPlayerID:       sw.OutPlayerID,
			InPlayerID:        sw.InPlayerID,
			SubstitutionsMade: state.Side(sw.Side).SubstitutionsMade,
			Automatic:         true,
			Injury:            sw.Injury,
		})
	}
	e.dispatch(ctx, events.TypeMatchAutoSubs, summary)

	return state, swaps, nil
}

func (e *Engine) autoSubstituteSide(side models.Side, s *models.SideState, matchLog []*models.MatchEvent, positions map[int]models.Position) []Swap {
	if s.SubstitutionsMade >= MaxSubstitutions || len(s.Reserves) == 0 {
		return nil
	}

	var swaps []Swap
	budgetLeft := func() bool { return s.SubstitutionsMade < MaxSubstitutions && len(s.Reserves) > 0 }

	for _, injured := range injuredOnPitch(s, matchLog) {
		if !budgetLeft() {
			break
		}
		inID, ok := firstEligibleReserve(s, injured, positions)
		if !ok {
			continue
		}
		s.Swap(injured, inID)
		swaps = append(swaps, Swap{Side: side, OutPlayerID: injured, InPlayerID: inID, Injury: true})
	}

	// Players for whom no eligible reserve exists are dropped from the draw.
	excluded := make(map[int]bool)
	for budgetLeft() {
		candidates := make([]int, 0, len(s.Lineup))
		for _, id := range s.Lineup {
			if !excluded[id] {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			break
		}

		outID := candidates[e.rng.IntN(len(candidates))]
		inID, ok := firstEligibleReserve(s, outID, positions)
		if !ok {
			excluded[outID] = true
			continue
		}
		s.Swap(outID, inID)
		swaps = append(swaps, Swap{Side: side, OutPlayerID: outID, InPlayerID: inID})
	}

	return swaps
}

// ResumeMatch clears the paused flag. It has no other effect.
func (e *Engine) ResumeMatch(ctx context.Context, matchID int) (*models.MatchState, error) {
	return e.setPaused(ctx, matchID, false)
}

// Pause marks a match as waiting for coach input.
func (e *Engine) Pause(ctx context.Context, matchID int) (*models.MatchState, error) {
	return e.setPaused(ctx, matchID, true)
}

func (e *Engine) setPaused(ctx context.Context, matchID int, paused bool) (*models.MatchState, error) {
	unlock := e.locks.Lock(matchID)
	defer unlock()

	current, err := e.State(ctx, matchID)
	if err != nil {
		return nil, err
	}

	state := current.Clone()
	state.Paused = paused
	state.UpdatedAt = e.now()
	if err := e.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save match state: %w", err)
	}

	eventType := events.TypeMatchResumed
	if paused {
		eventType = events.TypeMatchPaused
	}
	e.dispatch(ctx, eventType, events.MatchStateEvent{MatchID: matchID})
	return state, nil
}

// EndMatch discards the live state at full time and returns its final value.
func (e *Engine) EndMatch(ctx context.Context, matchID int) (*models.MatchState, error) {
	unlock := e.locks.Lock(matchID)
	defer unlock()

	state, err := e.State(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := e.store.Delete(ctx, matchID); err != nil {
		return nil, fmt.Errorf("failed to delete match state: %w", err)
	}

	log.Printf("[SubstitutionEngine] Match %d ended, live state discarded", matchID)
	e.dispatch(ctx, events.TypeMatchEnded, events.MatchStateEvent{MatchID: matchID, State: state})
	return state, nil
}

func (e *Engine) dispatch(ctx context.Context, eventType string, payload any) {
	e.dispatcher.Dispatch(events.NewTypedEvent(eventType, payload, ctx))
}

func newSide(squad []int) models.SideState {
	n := min(len(squad), LineupSize)
	return models.SideState{
		Lineup:   append([]int(nil), squad[:n]...),
		Reserves: append([]int{}, squad[n:]...),
	}
}

func validateSquads(home, away []int) error {
	if len(home) == 0 {
		return apperr.Validation("home", "squad is empty")
	}
	if len(away) == 0 {
		return apperr.Validation("away", "squad is empty")
	}

	seen := make(map[int]string, len(home)+len(away))
	for _, squad := range []struct {
		name string
		ids  []int
	}{{"home", home}, {"away", away}} {
		for _, id := range squad.ids {
			if prev, dup := seen[id]; dup {
				return apperr.Validation(squad.name, "player %d is listed twice (also in %s squad)", id, prev)
			}
			seen[id] = squad.name
		}
	}
	return nil
}

// injuredOnPitch returns lineup players with an INJURY event, in log order, without repeats.
func injuredOnPitch(s *models.SideState, matchLog []*models.MatchEvent) []int {
	var injured []int
	seen := make(map[int]bool)
	for _, ev := range matchLog {
		if ev.Type != models.EventInjury || ev.PlayerID == nil {
			continue
		}
		id := *ev.PlayerID
		if seen[id] || !s.InLineup(id) {
			continue
		}
		seen[id] = true
		injured = append(injured, id)
	}
	return injured
}

func firstEligibleReserve(s *models.SideState, outID int, positions map[int]models.Position) (int, bool) {
	for _, id := range s.Reserves {
		if s.WasSubbedOff(id) {
			continue
		}
		if keeperAllowed(s.Lineup, outID, id, positions) {
			return id, true
		}
	}
	return 0, false
}

// keeperAllowed reports whether swapping outID for inID keeps at most one goalkeeper on the pitch.
func keeperAllowed(lineup []int, outID, inID int, positions map[int]models.Position) bool {
	if positions[inID] != models.PositionGoalkeeper {
		return true
	}
	for _, id := range lineup {
		if id != outID && positions[id] == models.PositionGoalkeeper {
			return false
		}
	}
	return true
}

func countGoalkeepers(ids []int, positions map[int]models.Position) int {
	n := 0
	for _, id := range ids {
		if positions[id] == models.PositionGoalkeeper {
			n++
		}
	}
	return n
}

func squadIDs(state *models.MatchState) []int {
	var ids []int
	for _, side := range models.Sides {
		s := state.Side(side)
		ids = append(ids, s.Lineup...)
		ids = append(ids, s.Reserves...)
	}
	return ids
}
