package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/season-engine/internal/api/response"
	"github.com/ramonehamilton/season-engine/internal/metrics"
	"github.com/ramonehamilton/season-engine/internal/stats"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// StatsHandler handles player stat projection requests.
type StatsHandler struct {
	projector *stats.Projector
	metrics   *metrics.Collector
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(projector *stats.Projector, collector *metrics.Collector) *StatsHandler {
	return &StatsHandler{projector: projector, metrics: collector}
}

// PlayerStatView is the JSON view of a projected stat row.
type PlayerStatView struct {
	PlayerID    int `json:"player_id"`
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
	YellowCards int `json:"yellow_cards"`
	RedCards    int `json:"red_cards"`
	Injuries    int `json:"injuries"`
}

// ProjectSave backfills the stats of every match of a save.
func (h *StatsHandler) ProjectSave(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	saveID := chi.URLParam(r, "saveID")

	n, err := h.projector.ProjectSave(r.Context(), saveID)
	observe(h.metrics, metrics.OpProject, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"save_id": saveID, "matches_projected": n})
}

// ProjectMatch recomputes the stats of one match from its event log.
func (h *StatsHandler) ProjectMatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	matchID, err := pathInt(r, "matchID")
	if err != nil {
		response.FromError(w, err)
		return
	}

	rows, err := h.projector.ProjectMatch(r.Context(), matchID)
	observe(h.metrics, metrics.OpProject, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"match_id": matchID, "players": playerStatViews(rows)})
}

func playerStatViews(rows []*models.PlayerMatchStat) []PlayerStatView {
	views := make([]PlayerStatView, len(rows))
	for i, s := range rows {
		views[i] = PlayerStatView{
			PlayerID:    s.PlayerID,
			Goals:       s.Goals,
			Assists:     s.Assists,
			YellowCards: s.YellowCards,
			RedCards:    s.RedCards,
			Injuries:    s.Injuries,
		}
	}
	return views
}
