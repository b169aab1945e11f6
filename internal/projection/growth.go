package projection

import (
	"math"

	"github.com/shopspring/decimal"

	"aquaplan/internal/types"
)

// Canonical TGC growth-law exponents: cube root on weight, linear on
// temperature. These are the values used unless a growth model supplies its
// own.
var (
	DefaultExponentN = decimal.NewFromFloat(1.0 / 3.0)
	DefaultExponentM = decimal.NewFromInt(1)
)

// GrowthIntegrator advances fish weight forward one day at a time using the
// thermal growth coefficient law:
//
//	weight(d+1)^n = weight(d)^n + TGC * temperature(d)^m
//
// with n = 1/3 and m = 1 in the canonical form:
//
//	weight(d+1)^(1/3) = weight(d)^(1/3) + TGC * temperature(d)
//
// The integration runs in float64 (decimal has no fractional-power
// operation); results are converted back to decimal and rounded once at
// output-record construction, never inside the loop.
type GrowthIntegrator struct {
	tgc float64
	n   float64
	m   float64

	// canonical is true when the exponents are exactly the cube-root/linear
	// pair, letting the loop use math.Cbrt instead of math.Pow.
	canonical bool
}

// cubeRootTolerance decides whether a configured exponent_n is "the" cube
// root. Models store 0.33 or 0.333... for the canonical form; anything within
// this distance of 1/3 is integrated with the exact cube-root law rather than
// a slightly-off power, which is what the canonical form requires.
const cubeRootTolerance = 0.005

// NewGrowthIntegrator builds an integrator from a validated growth model.
// Zero-valued exponents fall back to the canonical pair.
func NewGrowthIntegrator(model *types.GrowthModel) *GrowthIntegrator {
	n := model.ExponentN
	m := model.ExponentM
	if n.IsZero() {
		n = DefaultExponentN
	}
	if m.IsZero() {
		m = DefaultExponentM
	}

	nf, _ := n.Float64()
	mf, _ := m.Float64()
	tgcf, _ := model.TGCValue.Float64()

	return &GrowthIntegrator{
		tgc:       tgcf,
		n:         nf,
		m:         mf,
		canonical: math.Abs(nf-1.0/3.0) < cubeRootTolerance && mf == 1,
	}
}

// Integrate produces the day-indexed weight sequence for the horizon.
// temps must have exactly one bias-corrected temperature per horizon day.
// The returned slice has length len(temps); element i is the projected weight
// after day i+1 of growth.
//
// Sub-zero temperatures are floored at zero before the increment step, so
// the sequence is non-decreasing even when a cold profile day plus a negative
// bias yields a sub-zero temperature; the TGC law models growth, not
// shrinkage. The floor also keeps the power step defined for fractional
// temperature exponents, where a negative base has no real result.
func (g *GrowthIntegrator) Integrate(startWeightG decimal.Decimal, temps []decimal.Decimal) ([]decimal.Decimal, error) {
	if startWeightG.Sign() <= 0 {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidWeight,
			"starting weight must be positive",
			nil,
		)
	}
	if len(temps) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidHorizon,
			"temperature series is empty",
			nil,
		)
	}

	w, _ := startWeightG.Float64()

	// Work in the transformed space: wn = weight^n.
	var wn float64
	if g.canonical {
		wn = math.Cbrt(w)
	} else {
		wn = math.Pow(w, g.n)
	}

	out := make([]decimal.Decimal, len(temps))
	for i, tempD := range temps {
		temp, _ := tempD.Float64()
		if temp < 0 {
			temp = 0
		}

		if g.m == 1 {
			wn += g.tgc * temp
		} else {
			wn += g.tgc * math.Pow(temp, g.m)
		}

		var weight float64
		if g.canonical {
			weight = wn * wn * wn
		} else {
			weight = math.Pow(wn, 1/g.n)
		}
		out[i] = decimal.NewFromFloat(weight)
	}

	return out, nil
}

// TemperatureSeries resolves the bias-corrected temperature for each horizon
// day. Day numbers are batch-relative: the series covers profile days
// startDay+1 through startDay+horizon. A profile gap anywhere in that range
// is a hard error; silently defaulting a temperature would fabricate growth.
func TemperatureSeries(profile *types.TemperatureProfile, startDay, horizon int, biasC decimal.Decimal) ([]decimal.Decimal, error) {
	if horizon <= 0 {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidHorizon,
			"projection horizon must be positive",
			nil,
			map[string]any{"horizon_days": horizon},
		)
	}

	temps := make([]decimal.Decimal, horizon)
	for i := 0; i < horizon; i++ {
		day := startDay + i + 1
		expected, err := profile.TemperatureForDay(day)
		if err != nil {
			return nil, err
		}
		temps[i] = expected.Add(biasC)
	}
	return temps, nil
}
