package projection

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"aquaplan/internal/types"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testProfile(days int, tempC string) types.TemperatureProfile {
	points := make([]types.ProfilePoint, 0, days)
	for d := 1; d <= days; d++ {
		points = append(points, types.ProfilePoint{DayNumber: d, TemperatureC: dec(tempC)})
	}
	return types.TemperatureProfile{ID: "tp_test", Name: "Test Profile", Points: points}
}

func observedRow(day int, tempC string, source types.TemperatureSource) types.ObservedDailyState {
	return types.ObservedDailyState{
		AssignmentID: "as_1",
		StateDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		DayNumber:    day,
		WeightG:      dec("2000"),
		Population:   95000,
		TempC:        dec(tempC),
		TempSource:   source,
	}
}

func TestEstimateZeroSignal(t *testing.T) {
	profile := testProfile(30, "11.0")
	est := NewBiasEstimator(30, dec("1.0"))

	// Only profile-sourced rows: no sensor signal at all.
	window := []types.ObservedDailyState{
		observedRow(10, "11.0", types.TempSourceProfile),
		observedRow(9, "11.0", types.TempSourceProfile),
	}

	got := est.Estimate(&profile, window)

	assert.True(t, got.BiasC.IsZero(), "bias should be zero with no measured rows")
	assert.True(t, got.RawBiasC.IsZero())
	assert.Equal(t, 0, got.WindowDaysUsed)
	assert.False(t, got.Clamped)
}

func TestEstimateEmptyWindow(t *testing.T) {
	profile := testProfile(30, "11.0")
	est := NewBiasEstimator(30, dec("1.0"))

	got := est.Estimate(&profile, nil)

	assert.True(t, got.BiasC.IsZero())
	assert.Equal(t, 0, got.WindowDaysUsed)
	assert.False(t, got.Clamped)
}

func TestEstimateMeanOfDeltas(t *testing.T) {
	profile := testProfile(30, "11.0")
	est := NewBiasEstimator(30, dec("1.0"))

	// Measured 11.4 and 11.8 against profile 11.0: deltas +0.4 and +0.8,
	// mean +0.6. Profile-sourced row must not contribute.
	window := []types.ObservedDailyState{
		observedRow(12, "11.8", types.TempSourceMeasured),
		observedRow(11, "11.4", types.TempSourceMeasured),
		observedRow(10, "13.0", types.TempSourceProfile),
	}

	got := est.Estimate(&profile, window)

	assert.True(t, got.BiasC.Equal(dec("0.6")), "bias = %s, want 0.6", got.BiasC)
	assert.True(t, got.RawBiasC.Equal(dec("0.6")))
	assert.Equal(t, 2, got.WindowDaysUsed)
	assert.False(t, got.Clamped)
}

func TestEstimateMeasuredEqualsProfile(t *testing.T) {
	profile := testProfile(30, "11.0")
	est := NewBiasEstimator(30, dec("1.0"))

	window := []types.ObservedDailyState{
		observedRow(5, "11.0", types.TempSourceMeasured),
		observedRow(4, "11.0", types.TempSourceMeasured),
	}

	got := est.Estimate(&profile, window)

	assert.True(t, got.BiasC.IsZero(), "identical temps should give zero bias")
	assert.Equal(t, 2, got.WindowDaysUsed, "zero bias from real signal still counts days")
}

// TestEstimateClampUpperBound verifies extreme sensor error propagates the
// clamp bound, not the raw delta.
func TestEstimateClampUpperBound(t *testing.T) {
	profile := testProfile(30, "11.0")
	est := NewBiasEstimator(30, dec("1.0"))

	window := []types.ObservedDailyState{
		observedRow(8, "18.0", types.TempSourceMeasured), // +7.0 C
	}

	got := est.Estimate(&profile, window)

	assert.True(t, got.Clamped)
	assert.True(t, got.BiasC.Equal(dec("1.0")), "bias = %s, want exactly the clamp bound", got.BiasC)
	assert.True(t, got.RawBiasC.Equal(dec("7.0")), "raw bias must be preserved pre-clamp")
	assert.Equal(t, 1, got.WindowDaysUsed)
}

func TestEstimateClampLowerBound(t *testing.T) {
	profile := testProfile(30, "11.0")
	est := NewBiasEstimator(30, dec("1.0"))

	window := []types.ObservedDailyState{
		observedRow(8, "6.0", types.TempSourceMeasured), // -5.0 C
	}

	got := est.Estimate(&profile, window)

	assert.True(t, got.Clamped)
	assert.True(t, got.BiasC.Equal(dec("-1.0")))
	assert.True(t, got.RawBiasC.Equal(dec("-5.0")))
}

// TestEstimateSkipsRowsOutsideProfile verifies a measured row whose day has
// no profile entry is not counted as a usable day.
func TestEstimateSkipsRowsOutsideProfile(t *testing.T) {
	profile := testProfile(10, "11.0")
	est := NewBiasEstimator(30, dec("1.0"))

	window := []types.ObservedDailyState{
		observedRow(50, "15.0", types.TempSourceMeasured), // beyond profile
		observedRow(5, "11.5", types.TempSourceMeasured),
	}

	got := est.Estimate(&profile, window)

	assert.Equal(t, 1, got.WindowDaysUsed)
	assert.True(t, got.BiasC.Equal(dec("0.5")), "bias = %s, want 0.5", got.BiasC)
}
