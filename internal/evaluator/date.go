package evaluator

import (
	"fmt"
	"strings"
	"time"
)

// DateMatch compares calendar dates parsed from both values. Dirty
// annotations sometimes transpose day and month, so an optional
// tolerance accepts either reading. The score is binary.
type DateMatch struct {
	Formats           []string
	AllowDayMonthSwap bool
}

// Evaluate parses both values against the candidate layouts and passes
// when the dates match, directly or with day and month transposed.
func (e *DateMatch) Evaluate(expected, actual string) FieldScore {
	score := FieldScore{Expected: expected, Actual: actual}

	formats := e.Formats
	if len(formats) == 0 {
		formats = DefaultDateFormats()
	}

	want, err := parseDate(expected, formats)
	if err != nil {
		score.Reason = fmt.Sprintf("expected value is not a date: %v", err)
		return score
	}
	got, err := parseDate(actual, formats)
	if err != nil {
		score.Reason = fmt.Sprintf("actual value is not a date: %v", err)
		return score
	}

	if sameDay(want, got) || (e.AllowDayMonthSwap && sameDay(want, swapDayMonth(got))) {
		score.Score = 1.0
		score.Passed = true
	}
	return score
}

// DefaultDateFormats lists the layouts tried in order when the
// configuration does not override them. Day-first layouts come before
// month-first ones since the receipt datasets use day-first notation.
func DefaultDateFormats() []string {
	return []string{
		"2006-01-02",
		"02/01/2006",
		"01/02/2006",
		"2/1/2006",
		"1/2/2006",
		"02-01-2006",
		"2006/01/02",
		"02.01.2006",
		"2 Jan 2006",
		"2 January 2006",
		"Jan 2, 2006",
		"20060102",
	}
}

func parseDate(s string, formats []string) (time.Time, error) {
	value := strings.TrimSpace(s)
	for _, layout := range formats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches '%s'", s)
}

// swapDayMonth returns the date with day and month transposed. When the
// day cannot serve as a month the date is returned unchanged and the
// comparison falls back to the direct one.
func swapDayMonth(t time.Time) time.Time {
	day := t.Day()
	if day > 12 {
		return t
	}
	return time.Date(t.Year(), time.Month(day), int(t.Month()), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
