package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/season-engine/internal/api/response"
	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/stats"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// SaveHandler handles save and team requests.
type SaveHandler struct {
	store *storage.Service
}

// NewSaveHandler creates a new SaveHandler.
func NewSaveHandler(store *storage.Service) *SaveHandler {
	return &SaveHandler{store: store}
}

// CreateSaveRequest is the body of POST /saves.
type CreateSaveRequest struct {
	Name string `json:"name"`
}

// SaveView is the JSON view of a save.
type SaveView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	CurrentSeason int        `json:"current_season"`
	CreatedAt     time.Time  `json:"created_at"`
	Teams         []TeamView `json:"teams"`
}

// TeamView is the JSON view of a team.
type TeamView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Division string `json:"division"`
	Rating   int    `json:"rating"`
	Morale   int    `json:"morale"`
}

func newSaveView(save *models.Save, teams []*models.Team) SaveView {
	view := SaveView{
		ID:            save.ID,
		Name:          save.Name,
		CurrentSeason: save.CurrentSeason,
		CreatedAt:     save.CreatedAt,
		Teams:         make([]TeamView, 0, len(teams)),
	}
	for _, t := range teams {
		view.Teams = append(view.Teams, TeamView{ID: t.ID, Name: t.Name, Division: t.Division, Rating: t.Rating, Morale: t.Morale})
	}
	return view
}

// CreateSave starts a new career save at season 1.
func (h *SaveHandler) CreateSave(w http.ResponseWriter, r *http.Request) {
	var req CreateSaveRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		response.FromError(w, apperr.Validation("name", "name is required"))
		return
	}

	save, err := h.store.CreateSave(r.Context(), req.Name)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, newSaveView(save, nil))
}

// ListSaves returns every save, newest first, without teams.
func (h *SaveHandler) ListSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := h.store.ListSaves(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	views := make([]SaveView, 0, len(saves))
	for _, save := range saves {
		views = append(views, newSaveView(save, nil))
	}
	response.Success(w, views)
}

// GetSave returns a save with its teams.
func (h *SaveHandler) GetSave(w http.ResponseWriter, r *http.Request) {
	saveID := chi.URLParam(r, "saveID")
	save, err := h.store.GetSave(r.Context(), saveID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if save == nil {
		response.FromError(w, apperr.NotFound("save", saveID))
		return
	}

	teams, err := h.store.TeamsBySave(r.Context(), saveID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, newSaveView(save, teams))
}

// FormView is the JSON view of a team's form.
type FormView struct {
	*models.FormStats
	Streak string `json:"streak"`
}

// GetTeamForm returns a team's streaks and recent form, optionally for one season.
func (h *SaveHandler) GetTeamForm(w http.ResponseWriter, r *http.Request) {
	saveID := chi.URLParam(r, "saveID")
	teamID, err := pathInt(r, "teamID")
	if err != nil {
		response.FromError(w, err)
		return
	}
	season, err := querySeason(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	team, err := h.store.GetTeam(r.Context(), teamID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if team == nil || team.SaveID != saveID {
		response.FromError(w, apperr.NotFound("team", teamID))
		return
	}

	matches, err := h.store.TeamResults(r.Context(), saveID, teamID, season)
	if err != nil {
		response.FromError(w, err)
		return
	}
	form := stats.CalculateForm(teamID, matches)
	response.Success(w, FormView{FormStats: form, Streak: stats.FormatCurrentStreak(form.CurrentStreak)})
}
