package projection

import (
	"context"

	"aquaplan/internal/types"
)

// ScenarioSource provides read access to the scenario configuration owned by
// the external scenario subsystem. Implemented by internal/db.
type ScenarioSource interface {
	// ScenarioByProjectionRun returns the scenario a pinned projection run
	// points at, or nil when the run does not exist.
	ScenarioByProjectionRun(ctx context.Context, runID string) (*types.Scenario, error)

	// LatestScenarioForBatch returns the newest scenario associated with the
	// batch, or nil when the batch has none.
	LatestScenarioForBatch(ctx context.Context, batchID string) (*types.Scenario, error)
}

// ResolveModels is the model resolution strategy: given a batch descriptor it
// returns the growth and mortality models the engine must use.
//
// Resolution order:
//  1. The scenario referenced by the batch's pinned projection run, if any.
//  2. The newest scenario associated with the batch.
//
// When neither exists the assignment cannot be projected at all, so the
// resolution fails with configuration_no_scenario. This is a hard
// precondition checked before anything is computed or written.
func ResolveModels(ctx context.Context, src ScenarioSource, batch types.BatchDescriptor) (*types.GrowthModel, *types.MortalityModel, error) {
	var (
		scenario *types.Scenario
		err      error
	)

	if batch.PinnedProjectionID != nil {
		scenario, err = src.ScenarioByProjectionRun(ctx, *batch.PinnedProjectionID)
		if err != nil {
			return nil, nil, err
		}
	}
	if scenario == nil {
		scenario, err = src.LatestScenarioForBatch(ctx, batch.BatchID)
		if err != nil {
			return nil, nil, err
		}
	}
	if scenario == nil {
		return nil, nil, types.NewAppErrorWithDetails(
			types.ErrCodeConfigNoScenario,
			"no scenario available for batch",
			nil,
			map[string]any{"batch_id": batch.BatchID},
		)
	}

	if err := scenario.Growth.Validate(); err != nil {
		return nil, nil, err
	}
	if err := scenario.Mortality.Validate(); err != nil {
		return nil, nil, err
	}

	return &scenario.Growth, &scenario.Mortality, nil
}
