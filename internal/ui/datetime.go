package ui

import (
	"fmt"
	"strings"
	"time"
)

// datetimeLayouts are the accepted written forms for the departure prompt,
// day first as usual in European timetables. Dataset instants are anchored
// to UTC days, so inputs parse in UTC.
var datetimeLayouts = []string{
	"2. 1. 2006 15:04:05",
	"2. 1. 2006 15:04",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2. 1. 2006",
	"2.1.2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC3339,
}

// ParseDateTime parses a departure instant in any of the accepted written
// forms. Date-only inputs mean midnight.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var parseErr error
	for _, layout := range datetimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		parseErr = err
	}
	return time.Time{}, fmt.Errorf("unrecognized date and time %q: %w", s, parseErr)
}

// FormatDateTime renders an instant the way the prompts expect it typed.
func FormatDateTime(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d. %d. %d %d:%02d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
}

// FormatDuration renders a span as hours and minutes.
func FormatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
}
