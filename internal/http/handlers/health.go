package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// pinger verifies storage connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and database connectivity probes.
type HealthHandler struct {
	db     pinger
	env    string
	logger *logging.Logger
}

// NewHealthHandler creates the health handler. db may be nil when the
// service runs without a database (local smoke tests).
func NewHealthHandler(db pinger, env string, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{db: db, env: env, logger: logger}
}

// Health is the HTTP handler for GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": h.env,
	})
}

// DBTest is the HTTP handler for GET /db-test.
func (h *HealthHandler) DBTest(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]any{
			"ok": false, "message": "database not configured",
		})
		return
	}
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("db connectivity check failed", "error", err)
		writeJSON(w, h.logger, http.StatusInternalServerError, map[string]any{
			"ok": false, "message": "database connection failed",
		})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"ok": true, "message": "database connection successful",
	})
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write json response", "error", err)
	}
}
