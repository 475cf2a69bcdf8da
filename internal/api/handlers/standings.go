package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/season-engine/internal/api/response"
	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/charts"
	"github.com/ramonehamilton/season-engine/internal/metrics"
	"github.com/ramonehamilton/season-engine/internal/standings"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// StandingsHandler handles league table requests.
type StandingsHandler struct {
	aggregator *standings.Aggregator
	store      *storage.Service
	metrics    *metrics.Collector
}

// NewStandingsHandler creates a new StandingsHandler.
func NewStandingsHandler(aggregator *standings.Aggregator, store *storage.Service, collector *metrics.Collector) *StandingsHandler {
	return &StandingsHandler{aggregator: aggregator, store: store, metrics: collector}
}

// StandingsView is the JSON view of a table.
type StandingsView struct {
	SaveID   string               `json:"save_id"`
	Season   *int                 `json:"season,omitempty"`
	Scope    models.Scope         `json:"scope"`
	Division *string              `json:"division,omitempty"`
	Rows     []models.StandingRow `json:"rows"`
}

// GetStandings returns the table of the played matchdays of a save,
// narrowed by the optional season, scope and division parameters.
func (h *StandingsHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	saveID := chi.URLParam(r, "saveID")

	filter, err := standingsFilter(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	rows, err := h.aggregator.ComputeStandingsFiltered(r.Context(), saveID, filter)
	observe(h.metrics, metrics.OpStandings, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, StandingsView{
		SaveID:   saveID,
		Season:   filter.Season,
		Scope:    filter.Scope,
		Division: filter.Division,
		Rows:     rows,
	})
}

func standingsFilter(r *http.Request) (standings.Filter, error) {
	season, err := querySeason(r)
	if err != nil {
		return standings.Filter{}, err
	}
	scope, err := queryScope(r)
	if err != nil {
		return standings.Filter{}, err
	}

	filter := standings.Filter{Season: season, Scope: scope}
	if d := r.URL.Query().Get("division"); d != "" {
		if !models.ValidDivision(d) {
			return standings.Filter{}, apperr.Validation("division", "unknown division %q", d)
		}
		filter.Division = &d
	}
	return filter, nil
}

// GetStandingsChart renders the cumulative points of a league season as an
// HTML line chart. The season defaults to the save's current season.
func (h *StandingsHandler) GetStandingsChart(w http.ResponseWriter, r *http.Request) {
	saveID := chi.URLParam(r, "saveID")
	filter, err := standingsFilter(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	season := 0
	if filter.Season != nil {
		season = *filter.Season
	} else {
		save, err := h.store.GetSave(r.Context(), saveID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		if save == nil {
			response.FromError(w, apperr.NotFound("save", saveID))
			return
		}
		season = save.CurrentSeason
	}

	progression, err := h.aggregator.PointsProgression(r.Context(), saveID, season, filter.Division)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if len(progression.Teams) == 0 {
		response.FromError(w, apperr.NotFound("played league matchdays of season", season))
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderPointsProgression(&buf, progression, charts.DefaultChartConfig()); err != nil {
		response.FromError(w, fmt.Errorf("failed to render chart: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
