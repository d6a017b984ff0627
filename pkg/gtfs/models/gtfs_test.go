package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	cases := []struct {
		in   string
		want ClockTime
	}{
		{"00:00:00", 0},
		{"9:05:30", 9*3600 + 5*60 + 30},
		{"23:59:59", 86399},
		{"24:00:00", 86400},
		{"25:30:00", 25*3600 + 30*60},
		{"48:00:01", 2*86400 + 1},
	}
	for _, tc := range cases {
		got, err := ParseClockTime(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseClockTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "12:00", "12:60:00", "12:00:60", "abc", "12:0a:00", "-1:00:00"} {
		_, err := ParseClockTime(in)
		assert.ErrorIs(t, err, ErrMalformed, in)
	}
}

func TestClockTimeDaySplit(t *testing.T) {
	days, rem := ClockTime(25*3600 + 30*60).DaySplit()
	assert.Equal(t, 1, days)
	assert.Equal(t, ClockTime(5400), rem)

	days, rem = ClockTime(600).DaySplit()
	assert.Equal(t, 0, days)
	assert.Equal(t, ClockTime(600), rem)
}

func TestClockTimeString(t *testing.T) {
	assert.Equal(t, "25:30:00", ClockTime(25*3600+30*60).String())
	assert.Equal(t, "09:05:07", ClockTime(9*3600+5*60+7).String())
}

func TestParseRouteType(t *testing.T) {
	classic := map[int]RouteType{
		0: RouteTramLightRail, 1: RouteMetroSubway, 2: RouteRail, 3: RouteBus,
		4: RouteFerry, 5: RouteCableTram, 6: RouteAerialLift, 7: RouteFunicular,
		11: RouteTrolleybus, 12: RouteMonorail,
	}
	for value, want := range classic {
		got, err := ParseRouteType(value)
		require.NoError(t, err)
		assert.Equal(t, want, got, value)
	}

	extended := map[int]RouteType{
		109: RouteRail, 204: RouteBus, 401: RouteMetroSubway, 405: RouteMonorail,
		715: RouteBus, 800: RouteTrolleybus, 900: RouteTramLightRail,
		1000: RouteFerry, 1304: RouteAerialLift, 1400: RouteFunicular,
	}
	for value, want := range extended {
		got, err := ParseRouteType(value)
		require.NoError(t, err)
		assert.Equal(t, want, got, value)
	}
}

func TestParseRouteTypeUnsupported(t *testing.T) {
	for _, value := range []int{1100, 1500, 1507, 1700, 1702} {
		_, err := ParseRouteType(value)
		assert.ErrorIs(t, err, ErrUnsupported, value)
	}
}

func TestParseRouteTypeInvalid(t *testing.T) {
	for _, value := range []int{-1, 8, 13, 99, 500, 2000} {
		_, err := ParseRouteType(value)
		assert.ErrorIs(t, err, ErrMalformed, value)
	}
}

func TestRouteShortNameFallback(t *testing.T) {
	r := &Route{RouteShortName: "22", RouteLongName: "White Mountain - Depot"}
	assert.Equal(t, "22", r.ShortName())
	r.RouteShortName = ""
	assert.Equal(t, "White Mountain - Depot", r.ShortName())
}

func TestParsePickupDropOffType(t *testing.T) {
	got, err := ParsePickupDropOffType(1)
	require.NoError(t, err)
	assert.Equal(t, PickupDropOffNone, got)

	_, err = ParsePickupDropOffType(4)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("20250310")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("2025-03-10")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDayStart(t *testing.T) {
	noon := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC).Unix()
	midnight := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, midnight, DayStart(noon))
	assert.Equal(t, midnight, DayStart(midnight))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), DayOf(noon))
}
