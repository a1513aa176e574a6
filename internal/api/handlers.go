package api

import (
	"encoding/json"
	"net/http"

	"newsctl/internal/health"
	"newsctl/internal/logger"
	"newsctl/internal/platform"
)

// Handler serves read-only views of the bot service.
type Handler struct {
	sys     platform.InitSystem
	checker *health.Checker
}

// NewHandler creates a new API handler
func NewHandler(sys platform.InitSystem, checker *health.Checker) *Handler {
	return &Handler{sys: sys, checker: checker}
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("failed to encode response", "error", err)
	}
}

// errorResponse writes an error response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// GetPlatform returns the init system name
func (h *Handler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{
		"platform": h.sys.Name(),
	})
}

// GetHealth returns the health report. Monitors only need the status
// code: 200 when healthy, 503 otherwise.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.checker.Check(r.Context())
	if err != nil {
		logger.Error("health check failed", "error", err)
		errorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	jsonResponse(w, status, report)
}

// GetState returns the raw unit state without touching the logs
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.checker.StateOf(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, state)
}
