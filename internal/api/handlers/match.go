package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ramonehamilton/season-engine/internal/api/response"
	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/metrics"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
	"github.com/ramonehamilton/season-engine/internal/substitution"
)

// MatchHandler handles the live match endpoints called by the simulator.
type MatchHandler struct {
	engine     *substitution.Engine
	store      *storage.Service
	dispatcher *events.EventDispatcher
	metrics    *metrics.Collector
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(engine *substitution.Engine, store *storage.Service, dispatcher *events.EventDispatcher, collector *metrics.Collector) *MatchHandler {
	return &MatchHandler{engine: engine, store: store, dispatcher: dispatcher, metrics: collector}
}

// KickoffRequest lists each side's squad, starters first. An omitted side
// fields its team's registered squad in player ID order.
type KickoffRequest struct {
	Home []int `json:"home"`
	Away []int `json:"away"`
}

// SubstitutionRequest is the body of a manual substitution.
type SubstitutionRequest struct {
	Side        models.Side `json:"side"`
	OutPlayerID int         `json:"out_player_id"`
	InPlayerID  int         `json:"in_player_id"`
}

// AutoSubstitutionsView reports the swaps made by the AI.
type AutoSubstitutionsView struct {
	State *models.MatchState  `json:"state"`
	Swaps []substitution.Swap `json:"swaps"`
}

// EventRequest is one entry of the match event log.
type EventRequest struct {
	Minute   int              `json:"minute"`
	Type     models.EventType `json:"type"`
	PlayerID *int             `json:"player_id,omitempty"`
	TeamID   *int             `json:"team_id,omitempty"`
}

// ResultRequest is the final score of a match.
type ResultRequest struct {
	HomeGoals *int `json:"home_goals"`
	AwayGoals *int `json:"away_goals"`
}

// requireMatch parses the match ID and checks the match exists.
func (h *MatchHandler) requireMatch(r *http.Request) (*models.Match, error) {
	matchID, err := pathInt(r, "matchID")
	if err != nil {
		return nil, err
	}
	match, err := h.store.GetMatch(r.Context(), matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, apperr.NotFound("match", matchID)
	}
	return match, nil
}

// requireOpenMatch is requireMatch for writes. Matches of a played matchday
// are history and cannot change.
func (h *MatchHandler) requireOpenMatch(r *http.Request) (*models.Match, error) {
	match, err := h.requireMatch(r)
	if err != nil {
		return nil, err
	}
	matchday, err := h.store.GetMatchday(r.Context(), match.MatchdayID)
	if err != nil {
		return nil, err
	}
	if matchday != nil && matchday.IsPlayed {
		return nil, apperr.Conflict(apperr.CodeMatchdayPlayed,
			"match %d belongs to matchday %d, which is already played", match.ID, matchday.ID)
	}
	return match, nil
}

// Kickoff creates the live state of a match.
func (h *MatchHandler) Kickoff(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state, err := h.kickoff(r)
	observe(h.metrics, metrics.OpKickoff, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, state)
}

func (h *MatchHandler) kickoff(r *http.Request) (*models.MatchState, error) {
	match, err := h.requireOpenMatch(r)
	if err != nil {
		return nil, err
	}
	var req KickoffRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	if req.Home, err = h.lineup(r.Context(), "home", match.HomeTeamID, req.Home); err != nil {
		return nil, err
	}
	if req.Away, err = h.lineup(r.Context(), "away", match.AwayTeamID, req.Away); err != nil {
		return nil, err
	}
	return h.engine.Kickoff(r.Context(), match.ID, req.Home, req.Away)
}

// lineup checks that every requested player is registered with the team.
// An empty request fields the whole squad in player ID order.
func (h *MatchHandler) lineup(ctx context.Context, field string, teamID int, requested []int) ([]int, error) {
	players, err := h.store.SquadOf(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		ids := make([]int, len(players))
		for i, p := range players {
			ids[i] = p.ID
		}
		return ids, nil
	}

	registered := make(map[int]bool, len(players))
	for _, p := range players {
		registered[p.ID] = true
	}
	for _, id := range requested {
		if !registered[id] {
			return nil, apperr.Validation(field, "player %d is not in the squad of team %d", id, teamID)
		}
	}
	return requested, nil
}

// GetState returns the live state of a match.
func (h *MatchHandler) GetState(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathInt(r, "matchID")
	if err != nil {
		response.FromError(w, err)
		return
	}
	state, err := h.engine.State(r.Context(), matchID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, state)
}

// Substitute applies a coach's substitution.
func (h *MatchHandler) Substitute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	matchID, err := pathInt(r, "matchID")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req SubstitutionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	state, err := h.engine.Substitute(r.Context(), matchID, req.Side, req.OutPlayerID, req.InPlayerID)
	observe(h.metrics, metrics.OpSubstitute, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, state)
}

// AutoSubstitute lets the AI spend both sides' remaining substitutions.
func (h *MatchHandler) AutoSubstitute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	matchID, err := pathInt(r, "matchID")
	if err != nil {
		response.FromError(w, err)
		return
	}

	state, swaps, err := h.engine.RunAutomaticSubstitutions(r.Context(), matchID)
	observe(h.metrics, metrics.OpAutoSubs, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if swaps == nil {
		swaps = []substitution.Swap{}
	}
	response.Success(w, AutoSubstitutionsView{State: state, Swaps: swaps})
}

// Pause flags a match as waiting for the coach.
func (h *MatchHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, h.engine.Pause)
}

// Resume clears the paused flag.
func (h *MatchHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, h.engine.ResumeMatch)
}

func (h *MatchHandler) setPaused(w http.ResponseWriter, r *http.Request, apply func(context.Context, int) (*models.MatchState, error)) {
	matchID, err := pathInt(r, "matchID")
	if err != nil {
		response.FromError(w, err)
		return
	}
	state, err := apply(r.Context(), matchID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, state)
}

// LogEvent appends an entry to a match's event log.
func (h *MatchHandler) LogEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	event, err := h.logEvent(r)
	observe(h.metrics, metrics.OpEventsLogged, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}

	events.Publish(h.dispatcher, r.Context(), events.TypeMatchEventLogged, events.MatchEventLoggedEvent{
		MatchID:  event.MatchID,
		EventID:  event.ID,
		Minute:   event.Minute,
		Type:     event.Type,
		PlayerID: event.PlayerID,
		TeamID:   event.TeamID,
	})
	response.Created(w, map[string]int{"event_id": event.ID})
}

func (h *MatchHandler) logEvent(r *http.Request) (*models.MatchEvent, error) {
	match, err := h.requireOpenMatch(r)
	if err != nil {
		return nil, err
	}
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if !models.ValidEventType(req.Type) {
		return nil, apperr.Validation("type", "unknown event type %q", req.Type)
	}
	if req.Minute < 0 {
		return nil, apperr.Validation("minute", "minute cannot be negative, got %d", req.Minute)
	}
	if req.TeamID != nil && *req.TeamID != match.HomeTeamID && *req.TeamID != match.AwayTeamID {
		return nil, apperr.Validation("team_id", "team %d does not play in match %d", *req.TeamID, match.ID)
	}

	event := &models.MatchEvent{
		MatchID:  match.ID,
		Minute:   req.Minute,
		Type:     req.Type,
		PlayerID: req.PlayerID,
		TeamID:   req.TeamID,
	}
	if err := h.store.AppendEvent(r.Context(), event); err != nil {
		return nil, err
	}
	return event, nil
}

// RecordResult stores the final score and discards the live state, if any.
func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	match, err := h.requireOpenMatch(r)
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req ResultRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	if req.HomeGoals == nil || req.AwayGoals == nil {
		response.FromError(w, apperr.Validation("body", "home_goals and away_goals are required"))
		return
	}
	if *req.HomeGoals < 0 || *req.AwayGoals < 0 {
		response.FromError(w, apperr.Validation("body", "goals cannot be negative"))
		return
	}

	if err := h.store.RecordResult(r.Context(), match.ID, *req.HomeGoals, *req.AwayGoals); err != nil {
		response.FromError(w, err)
		return
	}
	if _, err := h.engine.EndMatch(r.Context(), match.ID); err != nil && !apperr.IsNoActiveState(err) {
		response.FromError(w, err)
		return
	}

	result := events.MatchResultEvent{MatchID: match.ID, HomeGoals: *req.HomeGoals, AwayGoals: *req.AwayGoals}
	events.Publish(h.dispatcher, r.Context(), events.TypeMatchResult, result)
	response.Success(w, result)
}
