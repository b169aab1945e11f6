// Package projection implements the live forward projection engine: given an
// assignment's latest observed state and its resolved growth/mortality
// models, it computes a daily forward trajectory of weight, population, and
// biomass, detects the harvest-threshold crossing, and hands the result set
// to the persistence layer for an atomic replace.
//
// The numeric core is pure and synchronous; all I/O is confined to the narrow
// interfaces consumed by the Engine.
package projection

import "github.com/shopspring/decimal"

// Output rounding policy.
//
// All stored weight, temperature, and biomass values are rounded half-up to
// two decimal places, exactly once, at output-record construction. Rounding
// is never applied inside the integration loop, so recomputing with unchanged
// inputs reproduces the stored rows bit-for-bit (the idempotent-replace
// guarantee depends on this).
const outputScale = 2

// roundOutput applies the uniform output rounding policy. Decimal.Round
// rounds half away from zero, which is half-up for the non-negative values
// the engine produces.
func roundOutput(d decimal.Decimal) decimal.Decimal {
	return d.Round(outputScale)
}
