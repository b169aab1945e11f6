package projection

import (
	"github.com/shopspring/decimal"

	"aquaplan/internal/types"
)

// MortalityDecay advances population forward using a compounding daily
// mortality rate:
//
//	population(d+1) = round_half_up(population(d) * (1 - daily_rate))
//
// Rounding to whole fish happens at every step so re-runs with the same
// inputs are bit-reproducible; fractional fish are never carried forward.
// The half-up policy matches the engine-wide output rounding policy.
type MortalityDecay struct {
	survival decimal.Decimal // 1 - daily_rate
}

// NewMortalityDecay builds a calculator from a validated mortality model.
func NewMortalityDecay(model *types.MortalityModel) *MortalityDecay {
	return &MortalityDecay{survival: decimal.NewFromInt(1).Sub(model.DailyRate)}
}

// Decay produces the day-indexed population sequence for the horizon.
// Element i is the projected population after day i+1 of decay. The sequence
// is non-increasing; a starting population of 0 yields a constant-zero
// sequence.
func (m *MortalityDecay) Decay(startPopulation, horizon int) ([]int, error) {
	if startPopulation < 0 {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidPopulation,
			"starting population must be non-negative",
			nil,
		)
	}
	if horizon <= 0 {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidHorizon,
			"projection horizon must be positive",
			nil,
			map[string]any{"horizon_days": horizon},
		)
	}

	out := make([]int, horizon)
	cur := decimal.NewFromInt(int64(startPopulation))
	for i := 0; i < horizon; i++ {
		// Round half away from zero to whole fish; for non-negative
		// populations this is round-half-up.
		cur = cur.Mul(m.survival).Round(0)
		out[i] = int(cur.IntPart())
	}
	return out, nil
}
