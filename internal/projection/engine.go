package projection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aquaplan/internal/config"
	"aquaplan/internal/types"
)

// AssignmentSource provides read access to assignments and their batch
// descriptors. Implemented by internal/db.
type AssignmentSource interface {
	// GetAssignment returns the assignment or a not_found_assignment error.
	GetAssignment(ctx context.Context, id string) (*types.Assignment, error)

	// BatchDescriptor returns the batch identity (including any pinned
	// projection run) for model resolution.
	BatchDescriptor(ctx context.Context, batchID string) (*types.BatchDescriptor, error)
}

// ObservedStateSource provides read access to recorded daily states.
// Implemented by internal/db.
type ObservedStateSource interface {
	// LatestState returns the most recent observed state for the assignment,
	// or nil when none has been recorded.
	LatestState(ctx context.Context, assignmentID string) (*types.ObservedDailyState, error)

	// TrailingWindow returns the observed states within the window of `days`
	// calendar days ending at endDate, ordered by date descending.
	TrailingWindow(ctx context.Context, assignmentID string, endDate time.Time, days int) ([]types.ObservedDailyState, error)
}

// ProjectionStore persists computed trajectories. ReplaceProjection must be
// atomic per assignment: a reader never observes a partially-replaced row
// set, and two concurrent recomputes of the same assignment serialize.
// Implemented by internal/db.
type ProjectionStore interface {
	// ReplaceProjection deletes the assignment's existing projection rows,
	// inserts the new set, and upserts the summary, all in one transaction.
	// It returns the number of rows inserted.
	ReplaceProjection(ctx context.Context, assignmentID string, rows []types.ProjectionRow, summary *types.ForecastSummary) (int, error)
}

// ActivityChecker answers whether the external planning system already tracks
// a planned activity for an assignment around a date. Implemented by
// internal/planner.
type ActivityChecker interface {
	ActivityExists(ctx context.Context, assignmentID string, date time.Time) (bool, error)
}

// Engine is the top-level projection orchestrator and the only component
// exposed to external callers. One Engine serves all assignments; per-call
// state lives on the stack, so an Engine is safe for concurrent use across
// assignments.
type Engine struct {
	assignments AssignmentSource
	observed    ObservedStateSource
	scenarios   ScenarioSource
	store       ProjectionStore
	planner     ActivityChecker

	horizonDays int
	estimator   *BiasEstimator
	deriver     *SummaryDeriver

	clock  types.Clock
	logger *slog.Logger
}

// NewEngine wires a projection engine from its collaborators and the
// projection tuning knobs.
func NewEngine(
	assignments AssignmentSource,
	observed ObservedStateSource,
	scenarios ScenarioSource,
	store ProjectionStore,
	planner ActivityChecker,
	cfg config.ProjectionConfig,
	clock types.Clock,
	logger *slog.Logger,
) *Engine {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		assignments: assignments,
		observed:    observed,
		scenarios:   scenarios,
		store:       store,
		planner:     planner,
		horizonDays: cfg.HorizonDays,
		estimator:   NewBiasEstimator(cfg.BiasWindowDays, decimal.NewFromFloat(cfg.BiasClampC)),
		deriver:     NewSummaryDeriver(decimal.NewFromFloat(cfg.HarvestThresholdG), cfg.AttentionWindowDays),
		clock:       clock,
		logger:      logger,
	}
}

// ComputeAndStore runs the full projection pipeline for one assignment:
//
//  1. Resolve the growth and mortality models for the assignment's batch
//     (hard precondition; fails before anything is written).
//  2. Fetch the most recent observed state to seed the horizon.
//  3. Estimate the temperature bias over the trailing observation window.
//  4. Integrate weight (TGC law) and population (mortality decay) over the
//     horizon.
//  5. Zip the sequences into projection rows with constant provenance.
//  6. Atomically replace the stored rows and upsert the summary.
//
// All errors are surfaced synchronously; a failed run writes nothing.
// Calling twice with unchanged inputs leaves the stored rows identical
// (replace semantics, uniform rounding applied once per value).
func (e *Engine) ComputeAndStore(ctx context.Context, assignmentID string) (*types.ComputeResult, error) {
	log := e.logger.With("assignment_id", assignmentID)

	assignment, err := e.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	batch, err := e.assignments.BatchDescriptor(ctx, assignment.BatchID)
	if err != nil {
		return nil, err
	}

	growth, mortality, err := ResolveModels(ctx, e.scenarios, *batch)
	if err != nil {
		return nil, err
	}

	state, err := e.observed.LatestState(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeDataGapObservedState,
			"no observed state exists to seed the projection",
			nil,
			map[string]any{"assignment_id": assignmentID},
		)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}

	window, err := e.observed.TrailingWindow(ctx, assignmentID, state.StateDate, e.estimator.WindowDays)
	if err != nil {
		return nil, err
	}
	bias := e.estimator.Estimate(&growth.Profile, window)
	if bias.Clamped {
		log.Warn("temperature bias clamped",
			"raw_bias_c", bias.RawBiasC.String(),
			"bias_c", bias.BiasC.String(),
			"window_days_used", bias.WindowDaysUsed)
	}

	temps, err := TemperatureSeries(&growth.Profile, state.DayNumber, e.horizonDays, bias.BiasC)
	if err != nil {
		return nil, err
	}

	weights, err := NewGrowthIntegrator(growth).Integrate(state.WeightG, temps)
	if err != nil {
		return nil, err
	}

	populations, err := NewMortalityDecay(mortality).Decay(state.Population, e.horizonDays)
	if err != nil {
		return nil, err
	}

	rows := e.assembleRows(assignment.ID, state, growth, bias, weights, populations)

	summary := e.deriveSummary(ctx, log, rows, state)

	count, err := e.store.ReplaceProjection(ctx, assignment.ID, rows, summary)
	if err != nil {
		return nil, err
	}

	log.Info("projection computed",
		"rows", count,
		"horizon_days", e.horizonDays,
		"bias_c", bias.BiasC.String(),
		"bias_window_days_used", bias.WindowDaysUsed)

	return &types.ComputeResult{
		Success:      true,
		AssignmentID: assignment.ID,
		RowsCreated:  count,
	}, nil
}

// assembleRows zips the weight and population sequences into projection rows.
// Provenance fields are constant across the run: the bias is estimated once
// and the same model drives every day.
func (e *Engine) assembleRows(
	assignmentID string,
	state *types.ObservedDailyState,
	growth *types.GrowthModel,
	bias types.BiasEstimate,
	weights []decimal.Decimal,
	populations []int,
) []types.ProjectionRow {
	rows := make([]types.ProjectionRow, len(weights))
	for i := range weights {
		weight := roundOutput(weights[i])
		population := populations[i]
		rows[i] = types.ProjectionRow{
			ID:                  rowID(assignmentID, state.DayNumber+i+1),
			AssignmentID:        assignmentID,
			ProjectionDate:      state.StateDate.AddDate(0, 0, i+1),
			DayNumber:           state.DayNumber + i + 1,
			ProjectedWeightG:    weight,
			ProjectedPopulation: population,
			ProjectedBiomassKg:  roundOutput(types.BiomassKg(weight, population)),
			ProfileID:           growth.Profile.ID,
			ProfileName:         growth.Profile.Name,
			TGCValueUsed:        growth.TGCValue,
			BiasWindowDays:      bias.WindowDaysUsed,
			BiasClamped:         bias.Clamped,
		}
	}
	return rows
}

// deriveSummary finds the harvest crossing and consults the planner for an
// existing planned activity. Planner failures are fail-open: the summary is
// still produced, with the activity treated as absent, so a planning-system
// outage cannot block recomputes.
func (e *Engine) deriveSummary(
	ctx context.Context,
	log *slog.Logger,
	rows []types.ProjectionRow,
	state *types.ObservedDailyState,
) *types.ForecastSummary {
	plannedActivityExists := false
	if crossing := firstCrossing(rows, e.deriver.HarvestThresholdG); crossing != nil && e.planner != nil {
		exists, err := e.planner.ActivityExists(ctx, state.AssignmentID, crossing.ProjectionDate)
		if err != nil {
			log.Warn("planned activity lookup failed, assuming none exists", "error", err)
		} else {
			plannedActivityExists = exists
		}
	}

	summary := e.deriver.Derive(rows, state, e.clock.Now(), plannedActivityExists)
	return &summary
}

// rowID derives a deterministic UUIDv5 from the assignment and day number so
// an unchanged recompute reproduces identical rows, IDs included.
func rowID(assignmentID string, dayNumber int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "projection:%s:%d", assignmentID, dayNumber)).String()
}

// firstCrossing returns the first row at or above the harvest threshold, or
// nil when the horizon never reaches it.
func firstCrossing(rows []types.ProjectionRow, thresholdG decimal.Decimal) *types.ProjectionRow {
	for i := range rows {
		if rows[i].ProjectedWeightG.GreaterThanOrEqual(thresholdG) {
			return &rows[i]
		}
	}
	return nil
}
