package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/leave"
)

// singleHoliday marks exactly one date as non-working.
type singleHoliday struct{ date time.Time }

func (h singleHoliday) IsHoliday(date time.Time) bool {
	return leave.DateOf(date).Equal(leave.DateOf(h.date))
}

func TestDateOf_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	stamp := time.Date(2025, time.June, 15, 0, 30, 0, 0, loc) // 23:30 June 14 UTC

	got := leave.DateOf(stamp)

	assert.Equal(t, leave.Date(2025, time.June, 14), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestWorkingDays_SkipsWeekends(t *testing.T) {
	// Mon Jun 2 .. Sun Jun 8, 2025: five working days.
	start := leave.Date(2025, time.June, 2)
	end := leave.Date(2025, time.June, 8)

	assert.Equal(t, 5, leave.WorkingDays(start, end, nil))
}

func TestWorkingDays_WeekendOnlyRangeIsZero(t *testing.T) {
	// Sat Jun 7 .. Sun Jun 8, 2025.
	start := leave.Date(2025, time.June, 7)
	end := leave.Date(2025, time.June, 8)

	assert.Equal(t, 0, leave.WorkingDays(start, end, nil))
}

func TestWorkingDays_SingleDay(t *testing.T) {
	day := leave.Date(2025, time.June, 4) // Wednesday
	assert.Equal(t, 1, leave.WorkingDays(day, day, nil))
}

func TestWorkingDays_HolidayCalendarExcludesDates(t *testing.T) {
	// Mon Jun 2 .. Fri Jun 6, with Wednesday a holiday.
	start := leave.Date(2025, time.June, 2)
	end := leave.Date(2025, time.June, 6)
	cal := singleHoliday{date: leave.Date(2025, time.June, 4)}

	assert.Equal(t, 4, leave.WorkingDays(start, end, cal))
}

func TestWholeMonthsBetween(t *testing.T) {
	cases := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", leave.Date(2025, time.March, 10), leave.Date(2025, time.March, 10), 0},
		{"under a month", leave.Date(2025, time.January, 1), leave.Date(2025, time.January, 31), 0},
		{"exactly one month", leave.Date(2025, time.January, 1), leave.Date(2025, time.February, 1), 1},
		{"three months", leave.Date(2025, time.January, 1), leave.Date(2025, time.April, 1), 3},
		{"partial month rounds down", leave.Date(2025, time.January, 15), leave.Date(2025, time.April, 14), 2},
		{"across year boundary", leave.Date(2024, time.November, 1), leave.Date(2025, time.February, 1), 3},
		{"negative span clamps to zero", leave.Date(2025, time.May, 1), leave.Date(2025, time.April, 1), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, leave.WholeMonthsBetween(tc.from, tc.to))
		})
	}
}

func TestOverlaps(t *testing.T) {
	jun := func(d int) time.Time { return leave.Date(2025, time.June, d) }

	assert.True(t, leave.Overlaps(jun(1), jun(5), jun(5), jun(10)), "shared boundary day overlaps")
	assert.True(t, leave.Overlaps(jun(1), jun(10), jun(3), jun(4)), "containment overlaps")
	assert.True(t, leave.Overlaps(jun(3), jun(4), jun(1), jun(10)), "containment is symmetric")
	assert.False(t, leave.Overlaps(jun(1), jun(4), jun(5), jun(10)), "adjacent ranges do not overlap")
}

func TestEffectiveStatus_DerivedFromDates(t *testing.T) {
	req := &leave.LeaveRequest{
		Status:    leave.StatusApproved,
		StartDate: leave.Date(2025, time.July, 7),
		EndDate:   leave.Date(2025, time.July, 11),
	}

	assert.Equal(t, leave.StatusApproved, req.EffectiveStatus(leave.Date(2025, time.July, 6)))
	assert.Equal(t, leave.StatusInProgress, req.EffectiveStatus(leave.Date(2025, time.July, 7)))
	assert.Equal(t, leave.StatusInProgress, req.EffectiveStatus(leave.Date(2025, time.July, 11)))
	assert.Equal(t, leave.StatusCompleted, req.EffectiveStatus(leave.Date(2025, time.July, 12)))

	// Non-approved statuses pass through untouched.
	req.Status = leave.StatusPending
	assert.Equal(t, leave.StatusPending, req.EffectiveStatus(leave.Date(2025, time.July, 20)))
}
