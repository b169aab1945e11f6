package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"aquaplan/internal/types"
)

// SummaryDeriver reduces a projection row sequence to a decision-support
// summary: the first harvest-threshold crossing and a planning-attention
// flag.
//
// The deriver is pure: whether a planned activity already exists for the
// crossing date is owned by an external planning system and is injected as a
// boolean by the caller.
type SummaryDeriver struct {
	// HarvestThresholdG is the weight at which fish are considered
	// harvest-ready.
	HarvestThresholdG decimal.Decimal

	// AttentionWindowDays is the lead time inside which an unplanned
	// crossing needs planning attention.
	AttentionWindowDays int
}

// NewSummaryDeriver creates a deriver with the given harvest threshold and
// attention window.
func NewSummaryDeriver(harvestThresholdG decimal.Decimal, attentionWindowDays int) *SummaryDeriver {
	return &SummaryDeriver{
		HarvestThresholdG:   harvestThresholdG,
		AttentionWindowDays: attentionWindowDays,
	}
}

// Derive scans rows in day order for the first row whose projected weight
// reaches the harvest threshold and assembles the summary.
//
// When no row crosses the threshold within the horizon, ProjectedHarvestDate
// and DaysToHarvest are both nil: the horizon simply did not reach harvest
// weight, which is not an error.
//
// plannedActivityExists reports whether the external planning system already
// tracks an activity for this assignment around the crossing date; when true
// the attention flag stays false regardless of lead time.
func (d *SummaryDeriver) Derive(
	rows []types.ProjectionRow,
	state *types.ObservedDailyState,
	computedDate time.Time,
	plannedActivityExists bool,
) types.ForecastSummary {
	summary := types.ForecastSummary{
		AssignmentID:      state.AssignmentID,
		CurrentWeightG:    roundOutput(state.WeightG),
		CurrentPopulation: state.Population,
		StateDate:         state.StateDate,
		ComputedDate:      computedDate,
		HarvestThresholdG: d.HarvestThresholdG,
	}

	for _, row := range rows {
		if row.ProjectedWeightG.LessThan(d.HarvestThresholdG) {
			continue
		}
		harvestDate := row.ProjectionDate
		days := daysBetween(state.StateDate, harvestDate)
		summary.ProjectedHarvestDate = &harvestDate
		summary.DaysToHarvest = &days
		break
	}

	if summary.DaysToHarvest != nil &&
		*summary.DaysToHarvest <= d.AttentionWindowDays &&
		!plannedActivityExists {
		summary.NeedsPlanningAttention = true
	}

	return summary
}

// daysBetween returns the whole calendar days from a to b. Both dates are
// UTC midnights in practice, so truncation is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
