package handlers

import (
	"net/http"
	"time"

	"tecnobra-backend/internal/health"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.HealthChecker
	started time.Time
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker, started: time.Now()}
}

// BasicHealth - liveness probe. Terminals also read the site clock from it.
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	now := timeutil.Now()
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"siteTime":       now.Format(time.RFC3339),
		"timezone":       now.Location().String(),
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// ReadinessHealth - fails while the store is unreachable
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic(r.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

// DetailedHealth - store, cache and host usage
func (h *HealthHandler) DetailedHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.checker.CheckDetailed(r.Context()))
}
