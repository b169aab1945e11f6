package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"aquaplan/internal/types"
)

// ObservedStateRepository provides read access to the observed_daily_states
// table. It implements projection.ObservedStateSource. Observed states are
// owned by the recording subsystem; the engine only reads snapshots.
type ObservedStateRepository struct {
	db DBTX
}

// NewObservedStateRepository creates a new ObservedStateRepository backed by
// the given database connection (pool or transaction).
func NewObservedStateRepository(db DBTX) *ObservedStateRepository {
	return &ObservedStateRepository{db: db}
}

// observedColumns is the standard column set for observed state queries.
const observedColumns = `assignment_id, state_date, day_number,
	weight_g, population, biomass_kg, temp_c, temp_source`

// scanObservedState scans a single observed state row. The columns must
// match the order defined in observedColumns.
func scanObservedState(row pgx.Row) (*types.ObservedDailyState, error) {
	var s types.ObservedDailyState
	err := row.Scan(
		&s.AssignmentID,
		&s.StateDate,
		&s.DayNumber,
		&s.WeightG,
		&s.Population,
		&s.BiomassKg,
		&s.TempC,
		&s.TempSource,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LatestState returns the most recent observed state for the assignment, or
// nil when none has been recorded. The caller decides whether absence is an
// error (it is, when seeding a projection).
func (r *ObservedStateRepository) LatestState(ctx context.Context, assignmentID string) (*types.ObservedDailyState, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+observedColumns+`
		 FROM observed_daily_states
		 WHERE assignment_id = $1
		 ORDER BY state_date DESC
		 LIMIT 1`,
		assignmentID,
	)

	state, err := scanObservedState(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load latest observed state", err)
	}
	return state, nil
}

// TrailingWindow returns the observed states within the window of `days`
// calendar days ending at endDate (inclusive), ordered by state date
// descending.
func (r *ObservedStateRepository) TrailingWindow(ctx context.Context, assignmentID string, endDate time.Time, days int) ([]types.ObservedDailyState, error) {
	windowStart := endDate.AddDate(0, 0, -days)

	rows, err := r.db.Query(ctx,
		`SELECT `+observedColumns+`
		 FROM observed_daily_states
		 WHERE assignment_id = $1
		   AND state_date > $2
		   AND state_date <= $3
		 ORDER BY state_date DESC`,
		assignmentID, windowStart, endDate,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query observed state window", err)
	}
	defer rows.Close()

	var out []types.ObservedDailyState
	for rows.Next() {
		state, err := scanObservedState(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan observed state", err)
		}
		out = append(out, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate observed states", err)
	}
	return out, nil
}
