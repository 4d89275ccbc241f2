package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RecurrenceKind tags the closed set of recurrence patterns.
type RecurrenceKind int

const (
	// RecurSimple advances by one calendar unit per occurrence.
	RecurSimple RecurrenceKind = iota
	// RecurEvery advances by N calendar units per occurrence.
	RecurEvery
	// RecurWeekdays fires on a fixed set of weekdays.
	RecurWeekdays
	// RecurMonthdays fires on a fixed set of days of the month.
	RecurMonthdays
	// RecurNthWeekday fires on the nth (or last) weekday of each month.
	RecurNthWeekday
)

// RecurrenceUnit is the calendar unit for simple and interval patterns.
type RecurrenceUnit int

const (
	UnitDay RecurrenceUnit = iota
	UnitWeek
	UnitMonth
	UnitYear
)

// Recurrence is a parsed recurrence rule. The pattern kind is decided
// once, at parse time; evaluation never re-inspects the textual form.
type Recurrence struct {
	Kind      RecurrenceKind
	Unit      RecurrenceUnit // RecurSimple, RecurEvery
	N         int            // RecurEvery
	Weekdays  []time.Weekday // RecurWeekdays; sorted, unique
	Monthdays []int          // RecurMonthdays; sorted, unique, 1..31
	Nth       int            // RecurNthWeekday; 1..5, 0 when Last
	Last      bool           // RecurNthWeekday: last <weekday> of month
	Weekday   time.Weekday   // RecurNthWeekday
}

var simpleUnits = map[string]RecurrenceUnit{
	"daily":   UnitDay,
	"weekly":  UnitWeek,
	"monthly": UnitMonth,
	"yearly":  UnitYear,
}

var unitSuffixes = map[byte]RecurrenceUnit{
	'd': UnitDay,
	'w': UnitWeek,
	'm': UnitMonth,
	'y': UnitYear,
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

var ordinals = map[string]int{
	"1st": 1, "2nd": 2, "3rd": 3, "4th": 4, "5th": 5,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
}

// ParseRecurrence parses the textual form of a recurrence rule into its
// tagged representation. Accepted forms:
//
//	daily | weekly | monthly | yearly
//	3d | 2w | 6m | 1y          (every N days/weeks/months/years)
//	mon,wed,fri                (weekday set)
//	14,30                      (monthday set)
//	2nd tue | last fri         (nth weekday of the month)
func ParseRecurrence(text string) (*Recurrence, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return nil, fmt.Errorf("empty recurrence rule")
	}

	if unit, ok := simpleUnits[s]; ok {
		return &Recurrence{Kind: RecurSimple, Unit: unit}, nil
	}

	if r, ok := parseEvery(s); ok {
		return r, nil
	}

	if fields := strings.Fields(s); len(fields) == 2 {
		if r, ok := parseNthWeekday(fields[0], fields[1]); ok {
			return r, nil
		}
	}

	if r, err := parseSet(s); err == nil {
		return r, nil
	}

	return nil, fmt.Errorf("unrecognized recurrence rule %q", text)
}

// parseEvery handles the compact N-unit form, e.g. "3d".
func parseEvery(s string) (*Recurrence, bool) {
	if len(s) < 2 {
		return nil, false
	}
	unit, ok := unitSuffixes[s[len(s)-1]]
	if !ok {
		return nil, false
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 1 {
		return nil, false
	}
	return &Recurrence{Kind: RecurEvery, Unit: unit, N: n}, true
}

func parseNthWeekday(ord, day string) (*Recurrence, bool) {
	wd, ok := weekdayNames[day]
	if !ok {
		return nil, false
	}
	if ord == "last" {
		return &Recurrence{Kind: RecurNthWeekday, Last: true, Weekday: wd}, true
	}
	n, ok := ordinals[ord]
	if !ok {
		return nil, false
	}
	return &Recurrence{Kind: RecurNthWeekday, Nth: n, Weekday: wd}, true
}

// parseSet handles comma-separated weekday or monthday sets. The two
// forms are never mixed.
func parseSet(s string) (*Recurrence, error) {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	if wds, ok := parseWeekdaySet(parts); ok {
		return &Recurrence{Kind: RecurWeekdays, Weekdays: wds}, nil
	}
	if mds, ok := parseMonthdaySet(parts); ok {
		return &Recurrence{Kind: RecurMonthdays, Monthdays: mds}, nil
	}
	return nil, fmt.Errorf("not a weekday or monthday set")
}

func parseWeekdaySet(parts []string) ([]time.Weekday, bool) {
	seen := make(map[time.Weekday]bool)
	var wds []time.Weekday
	for _, p := range parts {
		wd, ok := weekdayNames[p]
		if !ok {
			return nil, false
		}
		if !seen[wd] {
			seen[wd] = true
			wds = append(wds, wd)
		}
	}
	sort.Slice(wds, func(i, j int) bool { return wds[i] < wds[j] })
	return wds, true
}

func parseMonthdaySet(parts []string) ([]int, bool) {
	seen := make(map[int]bool)
	var mds []int
	for _, p := range parts {
		d, err := strconv.Atoi(p)
		if err != nil || d < 1 || d > 31 {
			return nil, false
		}
		if !seen[d] {
			seen[d] = true
			mds = append(mds, d)
		}
	}
	sort.Ints(mds)
	return mds, true
}

// String renders the rule in its canonical textual form, suitable for
// storage and for ParseRecurrence round-trips.
func (r *Recurrence) String() string {
	switch r.Kind {
	case RecurSimple:
		for name, unit := range simpleUnits {
			if unit == r.Unit {
				return name
			}
		}
	case RecurEvery:
		for suffix, unit := range unitSuffixes {
			if unit == r.Unit {
				return fmt.Sprintf("%d%c", r.N, suffix)
			}
		}
	case RecurWeekdays:
		names := make([]string, len(r.Weekdays))
		for i, wd := range r.Weekdays {
			names[i] = strings.ToLower(wd.String()[:3])
		}
		return strings.Join(names, ",")
	case RecurMonthdays:
		days := make([]string, len(r.Monthdays))
		for i, d := range r.Monthdays {
			days[i] = strconv.Itoa(d)
		}
		return strings.Join(days, ",")
	case RecurNthWeekday:
		day := strings.ToLower(r.Weekday.String()[:3])
		if r.Last {
			return "last " + day
		}
		suffix := "th"
		switch r.Nth {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
		return fmt.Sprintf("%d%s %s", r.Nth, suffix, day)
	}
	return ""
}
