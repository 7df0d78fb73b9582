package domain

import "time"

// PeriodBounds is the current monthly accounting window for a plan.
// Both fields are nil for plans without a monthly-limited feature.
type PeriodBounds struct {
	Start *time.Time `json:"period_start,omitempty"`
	End   *time.Time `json:"period_end,omitempty"`
}

// Empty reports whether no window applies.
func (b PeriodBounds) Empty() bool {
	return b.Start == nil && b.End == nil
}

// Equal compares two bounds by instant. Partially populated bounds (seen
// in hand-edited or corrupt records) never compare equal to full ones.
func (b PeriodBounds) Equal(other PeriodBounds) bool {
	if b.Start == nil || b.End == nil || other.Start == nil || other.End == nil {
		return b.Start == nil && b.End == nil && other.Start == nil && other.End == nil
	}
	return b.Start.Equal(*other.Start) && b.End.Equal(*other.End)
}

// CurrentPeriodBounds returns the calendar-month window containing the
// current wall-clock time, or empty bounds if no feature of the plan is
// capped per month. All bounds are computed in UTC.
func CurrentPeriodBounds(plan PlanID) PeriodBounds {
	return CurrentPeriodBoundsAt(plan, time.Now().UTC())
}

// CurrentPeriodBoundsAt is CurrentPeriodBounds evaluated at an explicit
// instant. The window runs from the first instant of the month containing
// now through the last nanosecond of that month; time.Date normalizes the
// month+1 overflow, so month lengths and leap years fall out correctly.
func CurrentPeriodBoundsAt(plan PlanID, now time.Time) PeriodBounds {
	cfg := UsageConfigForPlan(plan)
	if !cfg.HasMonthlyFeature() {
		return PeriodBounds{}
	}

	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	return PeriodBounds{Start: &start, End: &end}
}
