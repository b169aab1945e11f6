package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aquaplan/internal/types"
)

// ProjectionComputer recomputes and stores one assignment's projection.
// Implemented by projection.Engine; defined locally to keep the handler
// decoupled from the engine's construction.
type ProjectionComputer interface {
	ComputeAndStore(ctx context.Context, assignmentID string) (*types.ComputeResult, error)
}

// ProjectionReader serves the stored projection artifacts.
type ProjectionReader interface {
	ListRows(ctx context.Context, assignmentID string) ([]types.ProjectionRow, error)
	GetSummary(ctx context.Context, assignmentID string) (*types.ForecastSummary, error)
}

// ProjectionHandler maps HTTP requests onto the projection engine and store.
type ProjectionHandler struct {
	computer ProjectionComputer
	reader   ProjectionReader
	logger   *slog.Logger
}

// NewProjectionHandler creates a ProjectionHandler.
func NewProjectionHandler(computer ProjectionComputer, reader ProjectionReader, logger *slog.Logger) *ProjectionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectionHandler{
		computer: computer,
		reader:   reader,
		logger:   logger,
	}
}

// RegisterRoutes mounts the projection endpoints under /assignments.
func (h *ProjectionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/assignments/{assignmentID}", func(r chi.Router) {
		r.Post("/projections/recompute", h.HandleRecompute)
		r.Get("/projections", h.HandleListProjections)
		r.Get("/forecast-summary", h.HandleGetSummary)
	})
}

// HandleRecompute handles POST /v1/assignments/{assignmentID}/projections/recompute.
// The recompute is synchronous: the response reports how many rows the new
// projection holds. Calling it twice without new observed data is a no-op at
// the storage level (the replacement writes identical rows).
func (h *ProjectionHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")
	if assignmentID == "" {
		Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"assignment id is required",
			nil,
		))
		return
	}

	result, err := h.computer.ComputeAndStore(r.Context(), assignmentID)
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: result})
}

// HandleListProjections handles GET /v1/assignments/{assignmentID}/projections.
// Rows come back in day order; an assignment that has never been computed
// returns an empty list, not an error.
func (h *ProjectionHandler) HandleListProjections(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")

	rows, err := h.reader.ListRows(r.Context(), assignmentID)
	if err != nil {
		Error(w, r, err)
		return
	}
	if rows == nil {
		rows = []types.ProjectionRow{}
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: rows})
}

// HandleGetSummary handles GET /v1/assignments/{assignmentID}/forecast-summary.
func (h *ProjectionHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")

	summary, err := h.reader.GetSummary(r.Context(), assignmentID)
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: summary})
}
