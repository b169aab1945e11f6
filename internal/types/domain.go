// Package types defines the core domain records shared across the aquaplan
// projection engine: assignments, growth/mortality models, temperature
// profiles, observed daily states, and the derived projection outputs.
//
// All weights, temperatures, and biomass values are shopspring decimals so
// that stored outputs are exact and recomputation is bit-reproducible. The
// rounding policy for outputs lives in internal/projection.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TemperatureSource distinguishes how an observed temperature was obtained.
type TemperatureSource string

const (
	// TempSourceMeasured marks a temperature that came from a container sensor.
	TempSourceMeasured TemperatureSource = "measured"
	// TempSourceProfile marks a temperature that was filled in from the
	// configured temperature profile because no sensor reading was available.
	TempSourceProfile TemperatureSource = "profile"
)

// MortalityFrequency is the cadence a mortality rate applies at. The engine
// currently only consumes daily rates.
type MortalityFrequency string

const (
	MortalityDaily MortalityFrequency = "daily"
)

// Assignment associates a batch's fish population with a specific container
// for a period of time. It is the unit of projection: all engine inputs and
// outputs are keyed by assignment ID.
type Assignment struct {
	ID          string          `json:"id"`
	BatchID     string          `json:"batch_id"`
	ContainerID string          `json:"container_id"`
	Species     string          `json:"species"`
	Stage       string          `json:"stage"`
	Population  int             `json:"population"`
	AvgWeightG  decimal.Decimal `json:"avg_weight_g"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BatchDescriptor carries the minimum batch identity the model resolution
// strategy needs: the batch ID and, when set, the projection run the batch is
// pinned to. Keeping this a plain record decouples resolution from any
// particular persistence technology.
type BatchDescriptor struct {
	BatchID            string  `json:"batch_id"`
	PinnedProjectionID *string `json:"pinned_projection_id,omitempty"`
}

// ProfilePoint is one (day-number, temperature) entry of a temperature
// profile. Day numbers are 1-based and contiguous.
type ProfilePoint struct {
	DayNumber    int             `json:"day_number"`
	TemperatureC decimal.Decimal `json:"temperature_c"`
}

// TemperatureProfile is an ordered sequence of daily expected temperatures
// spanning the planning horizon.
type TemperatureProfile struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Points []ProfilePoint `json:"points"`
}

// TemperatureForDay returns the profile temperature for a 1-based day number.
// A lookup outside the profile's defined range is a data gap, never a silent
// default: projecting through an undefined day would fabricate growth.
func (p *TemperatureProfile) TemperatureForDay(day int) (decimal.Decimal, error) {
	for _, pt := range p.Points {
		if pt.DayNumber == day {
			return pt.TemperatureC, nil
		}
	}
	return decimal.Zero, NewAppErrorWithDetails(
		ErrCodeDataGapProfileTemperature,
		"temperature profile has no entry for requested day",
		nil,
		map[string]any{"profile_id": p.ID, "day_number": day},
	)
}

// MaxDayNumber returns the highest day number the profile defines, or 0 for
// an empty profile.
func (p *TemperatureProfile) MaxDayNumber() int {
	max := 0
	for _, pt := range p.Points {
		if pt.DayNumber > max {
			max = pt.DayNumber
		}
	}
	return max
}

// GrowthModel is a thermal-growth-coefficient model: the TGC value, the
// growth-law exponents, and the temperature profile the model assumes.
// The engine treats it as a read-only snapshot at computation time.
type GrowthModel struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	TGCValue  decimal.Decimal    `json:"tgc_value"`
	ExponentN decimal.Decimal    `json:"exponent_n"`
	ExponentM decimal.Decimal    `json:"exponent_m"`
	Profile   TemperatureProfile `json:"temperature_profile"`
}

// MortalityModel is a compounding daily mortality rate. DailyRate is a
// fraction (0.0005 means 0.05%/day).
type MortalityModel struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	DailyRate decimal.Decimal    `json:"daily_rate"`
	Frequency MortalityFrequency `json:"frequency"`
}

// Scenario bundles the growth model, mortality model, and temperature profile
// configured for a batch. Scenarios are owned by an external subsystem; the
// engine only resolves and reads them.
type Scenario struct {
	ID        string         `json:"id"`
	BatchID   string         `json:"batch_id"`
	Growth    GrowthModel    `json:"growth_model"`
	Mortality MortalityModel `json:"mortality_model"`
	CreatedAt time.Time      `json:"created_at"`
}

// ObservedDailyState is one recorded day of an assignment's measured state.
// DayNumber is 1-based relative to batch start. TempSource records whether
// the temperature came from a sensor or was backfilled from the profile.
type ObservedDailyState struct {
	AssignmentID string            `json:"assignment_id"`
	StateDate    time.Time         `json:"state_date"`
	DayNumber    int               `json:"day_number"`
	WeightG      decimal.Decimal   `json:"weight_g"`
	Population   int               `json:"population"`
	BiomassKg    decimal.Decimal   `json:"biomass_kg"`
	TempC        decimal.Decimal   `json:"temp_c"`
	TempSource   TemperatureSource `json:"temp_source"`
}

// BiasEstimate is the output of the temperature bias estimator: the corrected
// (post-clamp) bias plus the metadata callers need to distinguish "no signal"
// from "signal computed as zero".
type BiasEstimate struct {
	BiasC          decimal.Decimal `json:"bias_c"`
	RawBiasC       decimal.Decimal `json:"raw_bias_c"`
	WindowDaysUsed int             `json:"window_days_used"`
	Clamped        bool            `json:"clamped"`
}

// ProjectionRow is one projected future day for an assignment. Provenance
// fields are constant across a single compute run since the bias is estimated
// once per run.
type ProjectionRow struct {
	ID                  string          `json:"id"`
	AssignmentID        string          `json:"assignment_id"`
	ProjectionDate      time.Time       `json:"projection_date"`
	DayNumber           int             `json:"day_number"`
	ProjectedWeightG    decimal.Decimal `json:"projected_weight_g"`
	ProjectedPopulation int             `json:"projected_population"`
	ProjectedBiomassKg  decimal.Decimal `json:"projected_biomass_kg"`

	// Provenance
	ProfileID      string          `json:"source_profile_id"`
	ProfileName    string          `json:"source_profile_name"`
	TGCValueUsed   decimal.Decimal `json:"tgc_value_used"`
	BiasWindowDays int             `json:"bias_window_days"`
	BiasClamped    bool            `json:"bias_clamped"`
}

// ForecastSummary is the one-row decision-support reduction of an
// assignment's projection. ProjectedHarvestDate and DaysToHarvest are nil
// when the horizon never reaches the harvest threshold.
type ForecastSummary struct {
	AssignmentID           string          `json:"assignment_id"`
	CurrentWeightG         decimal.Decimal `json:"current_weight_g"`
	CurrentPopulation      int             `json:"current_population"`
	StateDate              time.Time       `json:"state_date"`
	ComputedDate           time.Time       `json:"computed_date"`
	ProjectedHarvestDate   *time.Time      `json:"projected_harvest_date"`
	DaysToHarvest          *int            `json:"days_to_harvest"`
	HarvestThresholdG      decimal.Decimal `json:"harvest_threshold_g"`
	NeedsPlanningAttention bool            `json:"needs_planning_attention"`
}

// ComputeResult describes the outcome of one compute-and-store run.
type ComputeResult struct {
	Success      bool   `json:"success"`
	AssignmentID string `json:"assignment_id"`
	RowsCreated  int    `json:"rows_created"`
}

// BiomassKg computes biomass in kilograms from an average weight in grams and
// a population count. It is the single derivation used everywhere a biomass
// value is stored; persistence never computes it as a side effect.
func BiomassKg(weightG decimal.Decimal, population int) decimal.Decimal {
	return weightG.Mul(decimal.NewFromInt(int64(population))).Div(decimal.NewFromInt(1000))
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }
