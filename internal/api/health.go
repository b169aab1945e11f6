package api

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger checks connectivity to a backing dependency. *pgxpool.Pool
// satisfies it directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint. The database check makes it a
// readiness signal too: a pool that cannot reach Postgres fails the check.
type HealthHandler struct {
	db      Pinger
	service string
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler. db may be nil, in which case the
// check reports liveness only.
func NewHealthHandler(db Pinger, service string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{db: db, service: service, logger: logger}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HandleHealth handles GET /health.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			JSON(w, r, http.StatusServiceUnavailable, healthResponse{
				Status:  "unavailable",
				Service: h.service,
			})
			return
		}
	}

	JSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: h.service,
	})
}
