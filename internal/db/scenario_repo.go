package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"aquaplan/internal/types"
)

// ScenarioRepository resolves the scenario configuration (growth model,
// mortality model, temperature profile) owned by the external scenario
// subsystem. It implements projection.ScenarioSource.
type ScenarioRepository struct {
	db DBTX
}

// NewScenarioRepository creates a new ScenarioRepository backed by the given
// database connection (pool or transaction).
func NewScenarioRepository(db DBTX) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// scenarioColumns selects a scenario with its growth and mortality models.
// Model references are LEFT JOINed so a half-configured scenario surfaces as
// a distinguishable configuration error instead of a missing row.
const scenarioColumns = `s.id, s.batch_id, s.created_at,
	g.id, g.name, g.tgc_value, g.exponent_n, g.exponent_m,
	g.profile_id, p.name,
	m.id, m.name, m.daily_rate, m.frequency`

const scenarioJoins = `
	 FROM scenarios s
	 LEFT JOIN tgc_models g ON g.id = s.tgc_model_id
	 LEFT JOIN temperature_profiles p ON p.id = g.profile_id
	 LEFT JOIN mortality_models m ON m.id = s.mortality_model_id`

// scanScenario scans one scenario row (without profile points; those are
// loaded separately).
func scanScenario(row pgx.Row) (*types.Scenario, error) {
	var (
		sc        types.Scenario
		growthID  *string
		gName     *string
		tgc       decimal.NullDecimal
		expN      decimal.NullDecimal
		expM      decimal.NullDecimal
		profileID *string
		pName     *string
		mortID    *string
		mName     *string
		rate      decimal.NullDecimal
		freq      *string
	)

	err := row.Scan(
		&sc.ID, &sc.BatchID, &sc.CreatedAt,
		&growthID, &gName, &tgc, &expN, &expM,
		&profileID, &pName,
		&mortID, &mName, &rate, &freq,
	)
	if err != nil {
		return nil, err
	}

	if growthID == nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeConfigNoGrowthModel,
			"scenario has no growth model",
			nil,
			map[string]any{"scenario_id": sc.ID},
		)
	}
	if mortID == nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeConfigNoMortalityModel,
			"scenario has no mortality model",
			nil,
			map[string]any{"scenario_id": sc.ID},
		)
	}

	sc.Growth = types.GrowthModel{ID: *growthID}
	if gName != nil {
		sc.Growth.Name = *gName
	}
	sc.Growth.TGCValue = tgc.Decimal
	sc.Growth.ExponentN = expN.Decimal
	sc.Growth.ExponentM = expM.Decimal
	if profileID != nil {
		sc.Growth.Profile.ID = *profileID
	}
	if pName != nil {
		sc.Growth.Profile.Name = *pName
	}

	sc.Mortality = types.MortalityModel{ID: *mortID, Frequency: types.MortalityDaily}
	if mName != nil {
		sc.Mortality.Name = *mName
	}
	sc.Mortality.DailyRate = rate.Decimal
	if freq != nil {
		sc.Mortality.Frequency = types.MortalityFrequency(*freq)
	}

	return &sc, nil
}

// ScenarioByProjectionRun returns the scenario a pinned projection run points
// at, or nil when the run does not exist.
func (r *ScenarioRepository) ScenarioByProjectionRun(ctx context.Context, runID string) (*types.Scenario, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+scenarioColumns+scenarioJoins+`
		 JOIN projection_runs pr ON pr.scenario_id = s.id
		 WHERE pr.id = $1`,
		runID,
	)

	sc, err := scanScenario(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapScenarioError(err)
	}

	if err := r.loadProfilePoints(ctx, &sc.Growth.Profile); err != nil {
		return nil, err
	}
	return sc, nil
}

// LatestScenarioForBatch returns the newest scenario associated with the
// batch, or nil when the batch has none.
func (r *ScenarioRepository) LatestScenarioForBatch(ctx context.Context, batchID string) (*types.Scenario, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+scenarioColumns+scenarioJoins+`
		 WHERE s.batch_id = $1
		 ORDER BY s.created_at DESC
		 LIMIT 1`,
		batchID,
	)

	sc, err := scanScenario(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapScenarioError(err)
	}

	if err := r.loadProfilePoints(ctx, &sc.Growth.Profile); err != nil {
		return nil, err
	}
	return sc, nil
}

// loadProfilePoints fills in the profile's (day, temperature) points, ordered
// by day number.
func (r *ScenarioRepository) loadProfilePoints(ctx context.Context, profile *types.TemperatureProfile) error {
	rows, err := r.db.Query(ctx,
		`SELECT day_number, temperature_c
		 FROM temperature_profile_points
		 WHERE profile_id = $1
		 ORDER BY day_number`,
		profile.ID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to query profile points", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pt types.ProfilePoint
		if err := rows.Scan(&pt.DayNumber, &pt.TemperatureC); err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to scan profile point", err)
		}
		profile.Points = append(profile.Points, pt)
	}
	if err := rows.Err(); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to iterate profile points", err)
	}
	return nil
}

// wrapScenarioError preserves configuration errors from scanning and wraps
// everything else as a database error.
func wrapScenarioError(err error) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return types.NewAppError(types.ErrCodeInternalDB, "failed to load scenario", err)
}
