package models

import (
	"testing"
	"time"
)

func TestParseRecurrence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Recurrence
	}{
		{
			name: "daily",
			in:   "daily",
			want: Recurrence{Kind: RecurSimple, Unit: UnitDay},
		},
		{
			name: "yearly",
			in:   "yearly",
			want: Recurrence{Kind: RecurSimple, Unit: UnitYear},
		},
		{
			name: "every three days",
			in:   "3d",
			want: Recurrence{Kind: RecurEvery, Unit: UnitDay, N: 3},
		},
		{
			name: "every two weeks",
			in:   "2w",
			want: Recurrence{Kind: RecurEvery, Unit: UnitWeek, N: 2},
		},
		{
			name: "every six months",
			in:   "6m",
			want: Recurrence{Kind: RecurEvery, Unit: UnitMonth, N: 6},
		},
		{
			name: "weekday set",
			in:   "mon,wed,fri",
			want: Recurrence{Kind: RecurWeekdays, Weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		},
		{
			name: "weekday set unsorted with duplicates",
			in:   "fri, mon, fri",
			want: Recurrence{Kind: RecurWeekdays, Weekdays: []time.Weekday{time.Monday, time.Friday}},
		},
		{
			name: "single weekday",
			in:   "tue",
			want: Recurrence{Kind: RecurWeekdays, Weekdays: []time.Weekday{time.Tuesday}},
		},
		{
			name: "monthday set",
			in:   "14,30",
			want: Recurrence{Kind: RecurMonthdays, Monthdays: []int{14, 30}},
		},
		{
			name: "single monthday",
			in:   "31",
			want: Recurrence{Kind: RecurMonthdays, Monthdays: []int{31}},
		},
		{
			name: "second tuesday",
			in:   "2nd tue",
			want: Recurrence{Kind: RecurNthWeekday, Nth: 2, Weekday: time.Tuesday},
		},
		{
			name: "last friday",
			in:   "last fri",
			want: Recurrence{Kind: RecurNthWeekday, Last: true, Weekday: time.Friday},
		},
		{
			name: "case and whitespace",
			in:   "  Last FRI ",
			want: Recurrence{Kind: RecurNthWeekday, Last: true, Weekday: time.Friday},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecurrence(tt.in)
			if err != nil {
				t.Fatalf("ParseRecurrence(%q) error = %v", tt.in, err)
			}
			if got.Kind != tt.want.Kind || got.Unit != tt.want.Unit || got.N != tt.want.N ||
				got.Nth != tt.want.Nth || got.Last != tt.want.Last || got.Weekday != tt.want.Weekday {
				t.Errorf("ParseRecurrence(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if len(got.Weekdays) != len(tt.want.Weekdays) {
				t.Fatalf("ParseRecurrence(%q) weekdays = %v, want %v", tt.in, got.Weekdays, tt.want.Weekdays)
			}
			for i := range got.Weekdays {
				if got.Weekdays[i] != tt.want.Weekdays[i] {
					t.Errorf("ParseRecurrence(%q) weekdays = %v, want %v", tt.in, got.Weekdays, tt.want.Weekdays)
				}
			}
			if len(got.Monthdays) != len(tt.want.Monthdays) {
				t.Fatalf("ParseRecurrence(%q) monthdays = %v, want %v", tt.in, got.Monthdays, tt.want.Monthdays)
			}
			for i := range got.Monthdays {
				if got.Monthdays[i] != tt.want.Monthdays[i] {
					t.Errorf("ParseRecurrence(%q) monthdays = %v, want %v", tt.in, got.Monthdays, tt.want.Monthdays)
				}
			}
		})
	}
}

func TestParseRecurrenceRejects(t *testing.T) {
	bad := []string{
		"",
		"fortnightly",
		"0d",
		"-2w",
		"3x",
		"d",
		"mon,32",
		"0,14",
		"32",
		"6th tue",
		"last",
		"2nd",
		"2nd bogusday",
		"mon wed",
	}

	for _, in := range bad {
		if r, err := ParseRecurrence(in); err == nil {
			t.Errorf("ParseRecurrence(%q) = %+v, want error", in, r)
		}
	}
}

func TestRecurrenceStringRoundTrip(t *testing.T) {
	inputs := []string{
		"daily", "weekly", "monthly", "yearly",
		"3d", "2w", "6m", "1y",
		"mon,wed,fri", "sat,sun",
		"14,30", "1,15,31",
		"1st mon", "2nd tue", "3rd wed", "4th thu", "5th fri", "last sat",
	}

	for _, in := range inputs {
		r, err := ParseRecurrence(in)
		if err != nil {
			t.Fatalf("ParseRecurrence(%q) error = %v", in, err)
		}
		if got := r.String(); got != in {
			t.Errorf("ParseRecurrence(%q).String() = %q", in, got)
		}
		again, err := ParseRecurrence(r.String())
		if err != nil {
			t.Fatalf("reparse of %q error = %v", r.String(), err)
		}
		if again.String() != r.String() {
			t.Errorf("round trip of %q unstable: %q then %q", in, r.String(), again.String())
		}
	}
}
