package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SecondsPerDay is the length of a nominal service day.
const SecondsPerDay = 86400

// ClockTime is a GTFS schedule time: elapsed seconds since the service-day
// midnight. Values of 24:00:00 and above are legal and describe trips that
// run past midnight on the following calendar day.
type ClockTime int

// ParseClockTime parses an HH:MM:SS or H:MM:SS field. Hours may exceed 23.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("clock time %q is not HH:MM:SS: %w", s, ErrMalformed)
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("clock time %q is not HH:MM:SS: %w", s, ErrMalformed)
	}
	return ClockTime(h*3600 + m*60 + sec), nil
}

// DaySplit breaks the time into whole days past the service-day midnight
// and the remaining time of day.
func (t ClockTime) DaySplit() (days int, timeOfDay ClockTime) {
	return int(t) / SecondsPerDay, t % SecondsPerDay
}

// TimeOfDay returns the time reduced modulo 24 hours.
func (t ClockTime) TimeOfDay() ClockTime {
	return t % SecondsPerDay
}

// String formats the time as HH:MM:SS, with hours above 23 for overnight
// stop times.
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)/60%60, int(t)%60)
}

// ParseDate parses a YYYYMMDD calendar field into a UTC midnight instant.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYYMMDD: %w", s, ErrMalformed)
	}
	return d, nil
}

// DayStart truncates a Unix instant to the start of its UTC day. Service
// days are anchored to UTC midnights so that absolute instants are plain
// additions of a day start and a ClockTime.
func DayStart(instant int64) int64 {
	return instant - (instant%SecondsPerDay+SecondsPerDay)%SecondsPerDay
}

// DayOf returns the UTC calendar day containing the instant.
func DayOf(instant int64) time.Time {
	return time.Unix(DayStart(instant), 0).UTC()
}
