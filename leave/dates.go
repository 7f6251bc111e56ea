package leave

import "time"

// =============================================================================
// DATE HELPERS - Day-granularity arithmetic (all dates normalized to UTC)
// =============================================================================

// Date builds a day-granularity timestamp in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func StartOfYear(year int) time.Time { return Date(year, time.January, 1) }
func EndOfYear(year int) time.Time   { return Date(year, time.December, 31) }

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WholeMonthsBetween returns the count of whole calendar months elapsed from
// 'from' to 'to'. Negative spans count as zero.
func WholeMonthsBetween(from, to time.Time) int {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// =============================================================================
// HOLIDAY CALENDAR - Optional collaborator for non-working dates
// =============================================================================

// HolidayCalendar supplies non-working dates beyond weekends. Nil is a valid
// calendar: only weekends are excluded then.
type HolidayCalendar interface {
	IsHoliday(date time.Time) bool
}

// WorkingDays counts working days in the inclusive range [start, end]:
// weekends excluded always, holidays excluded when a calendar is supplied.
func WorkingDays(start, end time.Time, calendar HolidayCalendar) int {
	start, end = DateOf(start), DateOf(end)
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWeekend(d) {
			continue
		}
		if calendar != nil && calendar.IsHoliday(d) {
			continue
		}
		count++
	}
	return count
}

// Overlaps reports whether two inclusive date ranges intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !DateOf(aStart).After(DateOf(bEnd)) && !DateOf(aEnd).Before(DateOf(bStart))
}
