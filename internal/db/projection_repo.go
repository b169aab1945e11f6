package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"aquaplan/internal/types"
)

// ProjectionRepository persists projection rows and forecast summaries. It
// implements projection.ProjectionStore.
//
// The replace step runs inside a single transaction per assignment so a
// reader never observes a partially-replaced row set. The assignment row is
// locked FOR UPDATE first: two concurrent recomputes of the same assignment
// serialize (last writer wins), which is the only contention point — no
// cross-assignment state exists.
type ProjectionRepository struct {
	db       DBTX
	beginner TxBeginner
}

// NewProjectionRepository creates a new ProjectionRepository. db serves
// reads; beginner starts the replace transactions (typically both are the
// same *pgxpool.Pool).
func NewProjectionRepository(db DBTX, beginner TxBeginner) *ProjectionRepository {
	return &ProjectionRepository{db: db, beginner: beginner}
}

// projectionColumns is the standard column set for projection row queries.
const projectionColumns = `id, assignment_id, projection_date, day_number,
	projected_weight_g, projected_population, projected_biomass_kg,
	source_profile_id, source_profile_name, tgc_value_used,
	bias_window_days, bias_clamped`

// ReplaceProjection atomically replaces the assignment's projection rows and
// upserts its summary. Returns the number of rows inserted. On any error the
// transaction rolls back and the prior rows remain visible.
func (r *ProjectionRepository) ReplaceProjection(ctx context.Context, assignmentID string, rows []types.ProjectionRow, summary *types.ForecastSummary) (int, error) {
	tx, err := r.beginner.Begin(ctx)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to begin replace transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize concurrent recomputes of the same assignment.
	var locked string
	err = tx.QueryRow(ctx,
		`SELECT id FROM assignments WHERE id = $1 FOR UPDATE`,
		assignmentID,
	).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, types.NewAppErrorWithDetails(
			types.ErrCodeNotFoundAssignment,
			"assignment not found",
			nil,
			map[string]any{"assignment_id": assignmentID},
		)
	}
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to lock assignment", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM projection_rows WHERE assignment_id = $1`,
		assignmentID,
	); err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete prior projection rows", err)
	}

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO projection_rows (`+projectionColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			row.ID,
			row.AssignmentID,
			row.ProjectionDate,
			row.DayNumber,
			row.ProjectedWeightG,
			row.ProjectedPopulation,
			row.ProjectedBiomassKg,
			row.ProfileID,
			row.ProfileName,
			row.TGCValueUsed,
			row.BiasWindowDays,
			row.BiasClamped,
		); err != nil {
			return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to insert projection row", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO forecast_summaries (
		    assignment_id, current_weight_g, current_population,
		    state_date, computed_date, projected_harvest_date,
		    days_to_harvest, harvest_threshold_g, needs_planning_attention)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (assignment_id) DO UPDATE
		   SET current_weight_g = EXCLUDED.current_weight_g,
		       current_population = EXCLUDED.current_population,
		       state_date = EXCLUDED.state_date,
		       computed_date = EXCLUDED.computed_date,
		       projected_harvest_date = EXCLUDED.projected_harvest_date,
		       days_to_harvest = EXCLUDED.days_to_harvest,
		       harvest_threshold_g = EXCLUDED.harvest_threshold_g,
		       needs_planning_attention = EXCLUDED.needs_planning_attention`,
		summary.AssignmentID,
		summary.CurrentWeightG,
		summary.CurrentPopulation,
		summary.StateDate,
		summary.ComputedDate,
		summary.ProjectedHarvestDate,
		summary.DaysToHarvest,
		summary.HarvestThresholdG,
		summary.NeedsPlanningAttention,
	); err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to upsert forecast summary", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to commit projection replace", err)
	}
	return len(rows), nil
}

// ListRows returns the assignment's projection rows in day order.
func (r *ProjectionRepository) ListRows(ctx context.Context, assignmentID string) ([]types.ProjectionRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+projectionColumns+`
		 FROM projection_rows
		 WHERE assignment_id = $1
		 ORDER BY day_number`,
		assignmentID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query projection rows", err)
	}
	defer rows.Close()

	var out []types.ProjectionRow
	for rows.Next() {
		var row types.ProjectionRow
		if err := rows.Scan(
			&row.ID,
			&row.AssignmentID,
			&row.ProjectionDate,
			&row.DayNumber,
			&row.ProjectedWeightG,
			&row.ProjectedPopulation,
			&row.ProjectedBiomassKg,
			&row.ProfileID,
			&row.ProfileName,
			&row.TGCValueUsed,
			&row.BiasWindowDays,
			&row.BiasClamped,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan projection row", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate projection rows", err)
	}
	return out, nil
}

// GetSummary returns the assignment's forecast summary, or not_found_summary
// when no projection has been computed yet.
func (r *ProjectionRepository) GetSummary(ctx context.Context, assignmentID string) (*types.ForecastSummary, error) {
	var s types.ForecastSummary
	err := r.db.QueryRow(ctx,
		`SELECT assignment_id, current_weight_g, current_population,
		        state_date, computed_date, projected_harvest_date,
		        days_to_harvest, harvest_threshold_g, needs_planning_attention
		 FROM forecast_summaries
		 WHERE assignment_id = $1`,
		assignmentID,
	).Scan(
		&s.AssignmentID,
		&s.CurrentWeightG,
		&s.CurrentPopulation,
		&s.StateDate,
		&s.ComputedDate,
		&s.ProjectedHarvestDate,
		&s.DaysToHarvest,
		&s.HarvestThresholdG,
		&s.NeedsPlanningAttention,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeNotFoundSummary,
			"no forecast summary computed for assignment",
			nil,
			map[string]any{"assignment_id": assignmentID},
		)
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load forecast summary", err)
	}
	return &s, nil
}
