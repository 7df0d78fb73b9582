package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCurrentPeriodBoundsAt_MonthlyPlan(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 30, 0, 0, time.UTC)

	bounds := CurrentPeriodBoundsAt(PlanEssential, now)
	require.False(t, bounds.Empty())
	require.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), *bounds.Start)
	require.Equal(t, time.Date(2025, time.June, 30, 23, 59, 59, 999999999, time.UTC), *bounds.End)
}

func TestCurrentPeriodBoundsAt_LeapFebruary(t *testing.T) {
	now := time.Date(2024, time.February, 29, 8, 0, 0, 0, time.UTC)

	bounds := CurrentPeriodBoundsAt(PlanEssential, now)
	require.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), *bounds.Start)
	require.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 999999999, time.UTC), *bounds.End)
}

func TestCurrentPeriodBoundsAt_NonLeapFebruary(t *testing.T) {
	now := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)

	bounds := CurrentPeriodBoundsAt(PlanEssential, now)
	require.Equal(t, time.Date(2025, time.February, 28, 23, 59, 59, 999999999, time.UTC), *bounds.End)
}

func TestCurrentPeriodBoundsAt_DecemberRollsIntoNewYear(t *testing.T) {
	now := time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)

	bounds := CurrentPeriodBoundsAt(PlanEssential, now)
	require.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), *bounds.Start)
	require.Equal(t, time.Date(2025, time.December, 31, 23, 59, 59, 999999999, time.UTC), *bounds.End)
}

func TestCurrentPeriodBoundsAt_PlanWithoutMonthlyFeature(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	for _, plan := range []PlanID{PlanFree, PlanTrial, PlanPro, PlanPremium} {
		bounds := CurrentPeriodBoundsAt(plan, now)
		require.True(t, bounds.Empty(), "plan %s should have no period bounds", plan)
	}
}

func TestCurrentPeriodBoundsAt_NonUTCInputNormalized(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:00 on July 1st UTC+5 is still June 30th in UTC.
	now := time.Date(2025, time.July, 1, 2, 0, 0, 0, loc)

	bounds := CurrentPeriodBoundsAt(PlanEssential, now)
	require.Equal(t, time.Month(6), bounds.Start.Month())
}

func TestPeriodBoundsEqual(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	a := CurrentPeriodBoundsAt(PlanEssential, now)
	b := CurrentPeriodBoundsAt(PlanEssential, now.Add(24*time.Hour))

	require.True(t, a.Equal(b))
	require.True(t, PeriodBounds{}.Equal(PeriodBounds{}))
	require.False(t, a.Equal(PeriodBounds{}))
}
