package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func constantProfile(days int, tempC string) TemperatureProfile {
	temp := decimal.RequireFromString(tempC)
	points := make([]ProfilePoint, 0, days)
	for d := 1; d <= days; d++ {
		points = append(points, ProfilePoint{DayNumber: d, TemperatureC: temp})
	}
	return TemperatureProfile{ID: "tp_const", Name: "Constant", Points: points}
}

func TestTemperatureForDay(t *testing.T) {
	p := constantProfile(5, "11.0")

	got, err := p.TemperatureForDay(3)
	if err != nil {
		t.Fatalf("TemperatureForDay(3) returned error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("11.0")) {
		t.Errorf("TemperatureForDay(3) = %s, want 11.0", got)
	}
}

// TestTemperatureForDayOutOfRange verifies lookups beyond the profile are a
// data gap error, never a silent default.
func TestTemperatureForDayOutOfRange(t *testing.T) {
	p := constantProfile(5, "11.0")

	_, err := p.TemperatureForDay(6)
	if err == nil {
		t.Fatal("expected error for out-of-range day, got nil")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != ErrCodeDataGapProfileTemperature {
		t.Errorf("code = %q, want %q", appErr.Code, ErrCodeDataGapProfileTemperature)
	}
	if appErr.Details["day_number"] != 6 {
		t.Errorf("details day_number = %v, want 6", appErr.Details["day_number"])
	}
}

func TestMaxDayNumber(t *testing.T) {
	p := constantProfile(90, "10.5")
	if got := p.MaxDayNumber(); got != 90 {
		t.Errorf("MaxDayNumber() = %d, want 90", got)
	}

	empty := TemperatureProfile{}
	if got := empty.MaxDayNumber(); got != 0 {
		t.Errorf("MaxDayNumber() on empty profile = %d, want 0", got)
	}
}

func TestBiomassKg(t *testing.T) {
	// 2000 g x 95000 fish = 190,000,000 g = 190,000 kg
	got := BiomassKg(decimal.NewFromInt(2000), 95000)
	if !got.Equal(decimal.NewFromInt(190000)) {
		t.Errorf("BiomassKg = %s, want 190000", got)
	}

	if !BiomassKg(decimal.NewFromInt(2000), 0).Equal(decimal.Zero) {
		t.Error("BiomassKg with zero population should be zero")
	}
}

func TestGrowthModelValidate(t *testing.T) {
	valid := GrowthModel{
		ID:       "gm_1",
		TGCValue: decimal.RequireFromString("0.0024"),
		Profile:  constantProfile(10, "11.0"),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid model rejected: %v", err)
	}

	zeroTGC := valid
	zeroTGC.TGCValue = decimal.Zero
	var appErr *AppError
	if err := zeroTGC.Validate(); !errors.As(err, &appErr) || appErr.Code != ErrCodeValidationInvalidTGC {
		t.Errorf("zero TGC should fail with validation_invalid_tgc, got %v", err)
	}

	emptyProfile := valid
	emptyProfile.Profile = TemperatureProfile{ID: "tp_empty"}
	if err := emptyProfile.Validate(); !errors.As(err, &appErr) || appErr.Code != ErrCodeDataGapProfileTemperature {
		t.Errorf("empty profile should fail with data_gap_profile_temperature, got %v", err)
	}
}

func TestMortalityModelValidate(t *testing.T) {
	valid := MortalityModel{ID: "mm_1", DailyRate: decimal.RequireFromString("0.0005"), Frequency: MortalityDaily}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid model rejected: %v", err)
	}

	var appErr *AppError
	negative := MortalityModel{ID: "mm_2", DailyRate: decimal.RequireFromString("-0.01")}
	if err := negative.Validate(); !errors.As(err, &appErr) || appErr.Code != ErrCodeValidationInvalidRate {
		t.Errorf("negative rate should fail validation, got %v", err)
	}

	total := MortalityModel{ID: "mm_3", DailyRate: decimal.NewFromInt(1)}
	if err := total.Validate(); err == nil {
		t.Error("daily_rate of 1 should fail validation")
	}
}

func TestObservedDailyStateValidate(t *testing.T) {
	valid := ObservedDailyState{
		AssignmentID: "as_1",
		WeightG:      decimal.NewFromInt(2000),
		Population:   95000,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid state rejected: %v", err)
	}

	var appErr *AppError
	badWeight := valid
	badWeight.WeightG = decimal.Zero
	if err := badWeight.Validate(); !errors.As(err, &appErr) || appErr.Code != ErrCodeValidationInvalidWeight {
		t.Errorf("zero weight should fail validation, got %v", err)
	}

	badPop := valid
	badPop.Population = -1
	if err := badPop.Validate(); !errors.As(err, &appErr) || appErr.Code != ErrCodeValidationInvalidPopulation {
		t.Errorf("negative population should fail validation, got %v", err)
	}
}
