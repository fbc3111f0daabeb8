package handlers

import (
	"context"
	"net/http"
	"time"

	"bookmatch/internal/database"
	"bookmatch/internal/events"
)

// HealthHandler reports whether the service can reach its database
type HealthHandler struct {
	db     *database.DB
	broker *events.Broker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, broker *events.Broker) *HealthHandler {
	return &HealthHandler{db: db, broker: broker}
}

// Healthz pings the database
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Database unavailable", "Health check failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"database":      h.db.Dialect.MigrationsSubdir(),
		"streamClients": h.broker.ClientCount(),
	})
}
