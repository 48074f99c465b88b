package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/user-service/internal/repository"
)

const healthCheckTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "UP" or "DOWN"
}

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	db     repository.Pinger
	logger *slog.Logger
}

func NewHealthHandler(db repository.Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// HandleHealth pings the database with a short deadline.
//
// HTTP: GET /health
// RESPONSE: 200 {"status":"UP"} | 503 {"status":"DOWN"}
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "DOWN"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "UP"})
}
