package types

import "github.com/shopspring/decimal"

// Validator is implemented by entities to self-validate before use.
type Validator interface {
	Validate() error
}

var decimalOne = decimal.NewFromInt(1)

// Validate checks the growth model's invariants: a strictly positive TGC and
// a non-empty temperature profile. A zero or negative TGC would make the
// growth law degenerate, so it is rejected before any integration begins.
func (m *GrowthModel) Validate() error {
	if m.TGCValue.Sign() <= 0 {
		return NewAppErrorWithDetails(
			ErrCodeValidationInvalidTGC,
			"growth model tgc_value must be positive",
			nil,
			map[string]any{"model_id": m.ID, "tgc_value": m.TGCValue.String()},
		)
	}
	if len(m.Profile.Points) == 0 {
		return NewAppErrorWithDetails(
			ErrCodeDataGapProfileTemperature,
			"growth model has an empty temperature profile",
			nil,
			map[string]any{"model_id": m.ID, "profile_id": m.Profile.ID},
		)
	}
	return nil
}

// Validate checks the mortality model's invariants. The daily rate is a
// fraction and must stay within [0, 1); a rate of 1 or more would zero the
// population in a single step and is always a configuration mistake.
func (m *MortalityModel) Validate() error {
	if m.DailyRate.Sign() < 0 || m.DailyRate.GreaterThanOrEqual(decimalOne) {
		return NewAppErrorWithDetails(
			ErrCodeValidationInvalidRate,
			"mortality model daily_rate must be in [0, 1)",
			nil,
			map[string]any{"model_id": m.ID, "daily_rate": m.DailyRate.String()},
		)
	}
	return nil
}

// Validate checks an observed state used to seed a projection: positive
// weight and non-negative population.
func (s *ObservedDailyState) Validate() error {
	if s.WeightG.Sign() <= 0 {
		return NewAppErrorWithDetails(
			ErrCodeValidationInvalidWeight,
			"observed weight_g must be positive",
			nil,
			map[string]any{"assignment_id": s.AssignmentID, "weight_g": s.WeightG.String()},
		)
	}
	if s.Population < 0 {
		return NewAppErrorWithDetails(
			ErrCodeValidationInvalidPopulation,
			"observed population must be non-negative",
			nil,
			map[string]any{"assignment_id": s.AssignmentID, "population": s.Population},
		)
	}
	return nil
}
