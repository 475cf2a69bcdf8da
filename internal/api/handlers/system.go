package handlers

import (
	"net/http"

	"github.com/ramonehamilton/season-engine/internal/api/response"
	"github.com/ramonehamilton/season-engine/internal/metrics"
	"github.com/ramonehamilton/season-engine/internal/version"
)

// SystemHandler handles system-related API requests.
type SystemHandler struct {
	metrics *metrics.Collector
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(collector *metrics.Collector) *SystemHandler {
	return &SystemHandler{metrics: collector}
}

// GetMetrics returns per-operation call counts and latency percentiles.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	if h.metrics == nil {
		response.Success(w, &metrics.Snapshot{Operations: []metrics.OperationStats{}})
		return
	}
	response.Success(w, h.metrics.Snapshot())
}

// GetVersion returns the application version.
func (h *SystemHandler) GetVersion(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"version": version.GetVersion(),
		"service": "season-engine-api",
	})
}
