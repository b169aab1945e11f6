package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"aquaplan/internal/types"
)

// AssignmentRepository provides read access to container assignments and
// their batch descriptors. It implements projection.AssignmentSource.
type AssignmentRepository struct {
	db DBTX
}

// NewAssignmentRepository creates a new AssignmentRepository backed by the
// given database connection (pool or transaction).
func NewAssignmentRepository(db DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// GetAssignment returns the assignment by ID, or not_found_assignment when
// no row exists.
func (r *AssignmentRepository) GetAssignment(ctx context.Context, id string) (*types.Assignment, error) {
	var a types.Assignment
	err := r.db.QueryRow(ctx,
		`SELECT id, batch_id, container_id, species, stage,
		        population, avg_weight_g, active, created_at, updated_at
		 FROM assignments
		 WHERE id = $1`,
		id,
	).Scan(
		&a.ID,
		&a.BatchID,
		&a.ContainerID,
		&a.Species,
		&a.Stage,
		&a.Population,
		&a.AvgWeightG,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeNotFoundAssignment,
			"assignment not found",
			nil,
			map[string]any{"assignment_id": id},
		)
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load assignment", err)
	}
	return &a, nil
}

// BatchDescriptor returns the batch identity used for model resolution. A
// missing batch row means no scenario can ever resolve for the assignment,
// so it surfaces as configuration_no_scenario rather than an internal error.
func (r *AssignmentRepository) BatchDescriptor(ctx context.Context, batchID string) (*types.BatchDescriptor, error) {
	var d types.BatchDescriptor
	err := r.db.QueryRow(ctx,
		`SELECT id, pinned_projection_id
		 FROM batches
		 WHERE id = $1`,
		batchID,
	).Scan(&d.BatchID, &d.PinnedProjectionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeConfigNoScenario,
			"batch not found for assignment",
			nil,
			map[string]any{"batch_id": batchID},
		)
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load batch descriptor", err)
	}
	return &d, nil
}

// ListActiveAssignmentIDs returns the IDs of all active assignments, ordered
// for deterministic batch runs. Used by the batch recompute runner.
func (r *AssignmentRepository) ListActiveAssignmentIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id
		 FROM assignments
		 WHERE active = TRUE
		 ORDER BY id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list active assignments", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan assignment id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate assignments", err)
	}
	return ids, nil
}
