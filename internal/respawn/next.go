// Package respawn computes next occurrences for recurring tasks and
// materializes the replacement task when a recurring one reaches a
// terminal lifecycle.
package respawn

import (
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
)

// searchHorizonDays bounds the day-by-day monthday scan. The widest
// legal gap (day 31 across two short months) is well inside a year.
const searchHorizonDays = 400

// Next computes the first occurrence of rule strictly after from.
// Returns false when the rule is nil or yields no date. The result
// always satisfies next.After(from): an occurrence that would land
// exactly on from advances to the following one.
func Next(rule *models.Recurrence, from time.Time) (time.Time, bool) {
	if rule == nil {
		return time.Time{}, false
	}
	from = from.UTC()

	switch rule.Kind {
	case models.RecurSimple:
		return addUnits(from, rule.Unit, 1), true

	case models.RecurEvery:
		if rule.N < 1 {
			return time.Time{}, false
		}
		return addUnits(from, rule.Unit, rule.N), true

	case models.RecurWeekdays:
		return nextWeekday(rule.Weekdays, from)

	case models.RecurMonthdays:
		return nextMonthday(rule.Monthdays, from)

	case models.RecurNthWeekday:
		return nextNthWeekday(rule, from)
	}
	return time.Time{}, false
}

func addUnits(from time.Time, unit models.RecurrenceUnit, n int) time.Time {
	switch unit {
	case models.UnitDay:
		return from.AddDate(0, 0, n)
	case models.UnitWeek:
		return from.AddDate(0, 0, 7*n)
	case models.UnitMonth:
		return addMonthsClamped(from, n)
	default:
		return addMonthsClamped(from, 12*n)
	}
}

// addMonthsClamped advances by whole months, clamping the day to the
// target month's length instead of letting it normalize past it
// (Jan 31 + 1 month = Feb 28, not Mar 3).
func addMonthsClamped(t time.Time, months int) time.Time {
	h, min, sec := t.Clock()
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, h, min, sec, 0, t.Location())
	day := t.Day()
	if dim := daysInMonth(first.Year(), first.Month()); day > dim {
		day = dim
	}
	return time.Date(first.Year(), first.Month(), day, h, min, sec, 0, t.Location())
}

// nextWeekday finds the first date strictly after from's date whose
// weekday is in the set, keeping from's time of day. A same-day match
// never re-fires: it advances to the next one.
func nextWeekday(set []time.Weekday, from time.Time) (time.Time, bool) {
	if len(set) == 0 {
		return time.Time{}, false
	}
	want := make(map[time.Weekday]bool, len(set))
	for _, wd := range set {
		want[wd] = true
	}

	base := dateOf(from)
	for i := 1; i <= 7; i++ {
		c := base.AddDate(0, 0, i)
		if want[c.Weekday()] {
			return withClock(c, from), true
		}
	}
	return time.Time{}, false
}

// nextMonthday finds the first date strictly after from's date whose
// day of month is in the set. Days that do not exist in a month are
// skipped, not rounded: monthdays(30) never fires in February.
func nextMonthday(set []int, from time.Time) (time.Time, bool) {
	if len(set) == 0 {
		return time.Time{}, false
	}
	want := make(map[int]bool, len(set))
	for _, d := range set {
		want[d] = true
	}

	base := dateOf(from)
	for i := 1; i <= searchHorizonDays; i++ {
		c := base.AddDate(0, 0, i)
		if want[c.Day()] {
			return withClock(c, from), true
		}
	}
	return time.Time{}, false
}

// nextNthWeekday resolves "2nd tuesday" style rules: the occurrence in
// from's month when it still lies ahead, otherwise the first following
// month that has one (a fifth weekday skips months without one).
func nextNthWeekday(rule *models.Recurrence, from time.Time) (time.Time, bool) {
	base := dateOf(from)
	for m := 0; m <= 24; m++ {
		first := time.Date(base.Year(), base.Month()+time.Month(m), 1, 0, 0, 0, 0, base.Location())
		day, ok := nthWeekdayOfMonth(first.Year(), first.Month(), rule)
		if !ok {
			continue
		}
		c := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, base.Location())
		if c.After(base) {
			return withClock(c, from), true
		}
	}
	return time.Time{}, false
}

// nthWeekdayOfMonth returns the day of month for the rule's weekday
// occurrence, or false when the month has no such occurrence.
func nthWeekdayOfMonth(year int, month time.Month, rule *models.Recurrence) (int, bool) {
	dim := daysInMonth(year, month)

	if rule.Last {
		lastWd := time.Date(year, month, dim, 0, 0, 0, 0, time.UTC).Weekday()
		return dim - int((lastWd-rule.Weekday+7)%7), true
	}

	firstWd := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	day := 1 + int((rule.Weekday-firstWd+7)%7) + 7*(rule.Nth-1)
	if day > dim {
		return 0, false
	}
	return day, true
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateOf truncates to midnight, keeping the location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// withClock combines a date with the time of day of src.
func withClock(date time.Time, src time.Time) time.Time {
	h, m, s := src.Clock()
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, s, 0, src.Location())
}
