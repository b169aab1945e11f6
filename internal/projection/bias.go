package projection

import (
	"github.com/shopspring/decimal"

	"aquaplan/internal/types"
)

// BiasEstimator quantifies the systematic offset between sensor-measured
// temperatures and the configured temperature profile, for use as an additive
// correction during forward integration.
type BiasEstimator struct {
	// WindowDays is the trailing window length the caller used when fetching
	// observed states. Recorded into provenance; the estimator itself works
	// on whatever rows it is given.
	WindowDays int

	// ClampC is the symmetric clamp bound in degrees Celsius. The corrected
	// bias is confined to [-ClampC, +ClampC].
	ClampC decimal.Decimal
}

// NewBiasEstimator creates an estimator with the given trailing-window length
// and symmetric clamp bound.
func NewBiasEstimator(windowDays int, clampC decimal.Decimal) *BiasEstimator {
	return &BiasEstimator{WindowDays: windowDays, ClampC: clampC}
}

// Estimate computes the temperature bias from a trailing window of observed
// states against the profile's expected temperatures.
//
// Only rows whose temperature source is "measured" contribute to the raw
// bias; profile-sourced rows are fallback values and carry no sensor signal.
// A measured row whose day number falls outside the profile's defined range
// has no expected value to diff against and is skipped (it does not count as
// a usable day).
//
// The metadata fields are always populated, so callers can distinguish
// "no signal" (WindowDaysUsed == 0) from "signal computed as zero".
func (e *BiasEstimator) Estimate(profile *types.TemperatureProfile, window []types.ObservedDailyState) types.BiasEstimate {
	sum := decimal.Zero
	used := 0

	for _, obs := range window {
		if obs.TempSource != types.TempSourceMeasured {
			continue
		}
		expected, err := profile.TemperatureForDay(obs.DayNumber)
		if err != nil {
			continue
		}
		sum = sum.Add(obs.TempC.Sub(expected))
		used++
	}

	if used == 0 {
		return types.BiasEstimate{
			BiasC:          decimal.Zero,
			RawBiasC:       decimal.Zero,
			WindowDaysUsed: 0,
			Clamped:        false,
		}
	}

	raw := sum.Div(decimal.NewFromInt(int64(used)))
	corrected, clamped := clampSymmetric(raw, e.ClampC)

	return types.BiasEstimate{
		BiasC:          corrected,
		RawBiasC:       raw,
		WindowDaysUsed: used,
		Clamped:        clamped,
	}
}

// clampSymmetric confines v to [-bound, +bound] and reports whether clamping
// altered the value.
func clampSymmetric(v, bound decimal.Decimal) (decimal.Decimal, bool) {
	if v.GreaterThan(bound) {
		return bound, true
	}
	if v.LessThan(bound.Neg()) {
		return bound.Neg(), true
	}
	return v, false
}
