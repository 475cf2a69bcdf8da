package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/season-engine/internal/api/response"
	"github.com/ramonehamilton/season-engine/internal/matchday"
	"github.com/ramonehamilton/season-engine/internal/metrics"
	"github.com/ramonehamilton/season-engine/internal/schedule"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// ScheduleHandler handles fixture scheduling and matchday finalization.
type ScheduleHandler struct {
	scheduler *schedule.Scheduler
	finalizer *matchday.Finalizer
	metrics   *metrics.Collector
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduler *schedule.Scheduler, finalizer *matchday.Finalizer, collector *metrics.Collector) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, finalizer: finalizer, metrics: collector}
}

// ScheduleRequest is the body of the schedule endpoints.
type ScheduleRequest struct {
	Season   int    `json:"season"`
	Division string `json:"division,omitempty"` // league only
	Eager    bool   `json:"eager,omitempty"`    // cup only
}

// MatchView is the JSON view of a scheduled or played match.
type MatchView struct {
	ID          int        `json:"id"`
	HomeTeamID  int        `json:"home_team_id"`
	AwayTeamID  int        `json:"away_team_id"`
	HomeGoals   *int       `json:"home_goals,omitempty"`
	AwayGoals   *int       `json:"away_goals,omitempty"`
	IsPlayed    bool       `json:"is_played"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// RoundView is the JSON view of a matchday with its matches.
type RoundView struct {
	MatchdayID int                 `json:"matchday_id"`
	Number     int                 `json:"number"`
	Type       models.MatchdayType `json:"type"`
	Season     int                 `json:"season"`
	Division   *string             `json:"division,omitempty"`
	Matches    []MatchView         `json:"matches"`
}

func newMatchView(m *models.Match) MatchView {
	return MatchView{
		ID:          m.ID,
		HomeTeamID:  m.HomeTeamID,
		AwayTeamID:  m.AwayTeamID,
		HomeGoals:   m.HomeGoals,
		AwayGoals:   m.AwayGoals,
		IsPlayed:    m.IsPlayed,
		ScheduledAt: m.ScheduledAt,
	}
}

func newRoundViews(rounds []models.ScheduledRound) []RoundView {
	views := make([]RoundView, len(rounds))
	for i, round := range rounds {
		md := round.Matchday
		views[i] = RoundView{
			MatchdayID: md.ID,
			Number:     md.Number,
			Type:       md.Type,
			Season:     md.Season,
			Division:   md.Division,
			Matches:    make([]MatchView, len(round.Matches)),
		}
		for j, m := range round.Matches {
			views[i].Matches[j] = newMatchView(m)
		}
	}
	return views
}

// ScheduleLeague draws the league fixtures of one division for a season.
func (h *ScheduleHandler) ScheduleLeague(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	rounds, err := h.scheduler.ScheduleLeague(r.Context(), chi.URLParam(r, "saveID"), req.Season, req.Division)
	observe(h.metrics, metrics.OpSchedule, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, newRoundViews(rounds))
}

// ScheduleCup draws the cup of a season.
func (h *ScheduleHandler) ScheduleCup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	rounds, err := h.scheduler.ScheduleCup(r.Context(), chi.URLParam(r, "saveID"), req.Season, req.Eager)
	observe(h.metrics, metrics.OpSchedule, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, newRoundViews(rounds))
}

// AdvanceCup draws the next cup round from the results of the latest one.
func (h *ScheduleHandler) AdvanceCup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	round, err := h.scheduler.AdvanceCup(r.Context(), chi.URLParam(r, "saveID"), req.Season)
	observe(h.metrics, metrics.OpSchedule, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, newRoundViews([]models.ScheduledRound{*round})[0])
}

// FinalizeMatchday closes a matchday and returns the refreshed table.
// Finalizing twice is not an error; the summary reports already_played.
func (h *ScheduleHandler) FinalizeMatchday(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	matchdayID, err := pathInt(r, "matchdayID")
	if err != nil {
		response.FromError(w, err)
		return
	}

	summary, err := h.finalizer.Finalize(r.Context(), chi.URLParam(r, "saveID"), matchdayID)
	observe(h.metrics, metrics.OpFinalize, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, summary)
}
