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
	"github.com/ramonehamilton/season-engine/internal/goldenboot"
	"github.com/ramonehamilton/season-engine/internal/metrics"
)

// ScorerHandler handles golden boot requests.
type ScorerHandler struct {
	ranker  *goldenboot.Ranker
	metrics *metrics.Collector
}

// NewScorerHandler creates a new ScorerHandler.
func NewScorerHandler(ranker *goldenboot.Ranker, collector *metrics.Collector) *ScorerHandler {
	return &ScorerHandler{ranker: ranker, metrics: collector}
}

// GetTopScorers ranks the scorers of one season (default: the latest).
// format=html renders the leaderboard as a bar chart.
func (h *ScorerHandler) GetTopScorers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	season, err := querySeason(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	h.serve(w, r, start, func(limit int) (*goldenboot.Leaderboard, error) {
		scope, err := queryScope(r)
		if err != nil {
			return nil, err
		}
		return h.ranker.TopScorers(r.Context(), chi.URLParam(r, "saveID"), season, scope, limit)
	})
}

// GetHistoricalScorers ranks the scorers across every season of the save.
func (h *ScorerHandler) GetHistoricalScorers(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, time.Now(), func(limit int) (*goldenboot.Leaderboard, error) {
		scope, err := queryScope(r)
		if err != nil {
			return nil, err
		}
		return h.ranker.HistoricalTopScorers(r.Context(), chi.URLParam(r, "saveID"), scope, limit)
	})
}

func (h *ScorerHandler) serve(w http.ResponseWriter, r *http.Request, start time.Time, rank func(limit int) (*goldenboot.Leaderboard, error)) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		response.FromError(w, err)
		return
	}
	n := goldenboot.DefaultLimit
	if limit != nil {
		n = *limit
	}

	board, err := rank(n)
	observe(h.metrics, metrics.OpTopScorers, start, err)
	if err != nil {
		response.FromError(w, err)
		return
	}

	if r.URL.Query().Get("format") != "html" {
		response.Success(w, board)
		return
	}
	if len(board.Scorers) == 0 {
		response.FromError(w, apperr.NotFound("scorers of save", board.SaveID))
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderTopScorers(&buf, board, charts.DefaultChartConfig()); err != nil {
		response.FromError(w, fmt.Errorf("failed to render chart: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
