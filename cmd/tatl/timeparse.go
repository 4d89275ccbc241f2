package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeFormats are tried in order. Date-only forms land on midnight UTC.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime accepts the handful of forms people actually type: RFC3339,
// a date with an optional clock, a bare clock (today), or unix seconds.
// Everything is read as UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	if t, err := time.Parse("15:04", s); err == nil {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized time %q (try 2006-01-02 15:04, 15:04, RFC3339, or unix seconds)", s)
}

// parseDay reads a date and returns the UTC day window it names.
func parseDay(s string) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("unrecognized day %q (want 2006-01-02)", s)
	}
	start := day.UTC()
	return start, start.Add(24 * time.Hour), nil
}

// parseTimeFlag resolves an optional --at style flag, empty meaning now.
func parseTimeFlag(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseTime(s)
}
