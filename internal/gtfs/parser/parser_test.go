package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeyfinder/internal/common/logger"
	"github.com/journeyfinder/pkg/gtfs/models"
)

// writeDataset writes CSV files into a fresh directory, one string per line.
func writeDataset(t *testing.T, files map[string][]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, lines := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644)
		require.NoError(t, err)
	}
	return dir
}

func minimalFiles() map[string][]string {
	return map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,location_type,parent_station",
			"S1,First Street,0,",
			"S2,Second Street,0,",
		},
		"routes.txt": {
			"route_id,route_short_name,route_type",
			"R1,11,3",
		},
		"trips.txt": {
			"trip_id,route_id,service_id",
			"T1,R1,WD",
		},
		"stop_times.txt": {
			"trip_id,stop_sequence,stop_id,arrival_time,departure_time",
			"T1,1,S1,08:00:00,08:00:00",
			"T1,2,S2,08:10:00,08:11:00",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WD,1,1,1,1,1,0,0,20250101,20251231",
		},
	}
}

// collector gathers every record the parser emits.
type collector struct {
	stops         []*models.Stop
	routes        []*models.Route
	trips         []*models.Trip
	stopTimes     []*models.StopTime
	calendars     []*models.Calendar
	calendarDates []*models.CalendarDate
	transfers     []*models.Transfer
}

func (c *collector) callbacks() Callbacks {
	return Callbacks{
		OnStop:         func(s *models.Stop) error { c.stops = append(c.stops, s); return nil },
		OnRoute:        func(r *models.Route) error { c.routes = append(c.routes, r); return nil },
		OnTrip:         func(tr *models.Trip) error { c.trips = append(c.trips, tr); return nil },
		OnStopTime:     func(st *models.StopTime) error { c.stopTimes = append(c.stopTimes, st); return nil },
		OnCalendar:     func(cal *models.Calendar) error { c.calendars = append(c.calendars, cal); return nil },
		OnCalendarDate: func(cd *models.CalendarDate) error { c.calendarDates = append(c.calendarDates, cd); return nil },
		OnTransfer:     func(tr *models.Transfer) error { c.transfers = append(c.transfers, tr); return nil },
	}
}

func TestParseDirectory(t *testing.T) {
	dir := writeDataset(t, minimalFiles())
	var c collector
	err := New(logger.Nop()).ParseDirectory(context.Background(), Options{Dir: dir}, c.callbacks())
	require.NoError(t, err)

	require.Len(t, c.stops, 2)
	assert.Equal(t, "S1", c.stops[0].StopID)
	assert.Equal(t, "First Street", c.stops[0].StopName)

	require.Len(t, c.routes, 1)
	assert.Equal(t, models.RouteBus, c.routes[0].RouteType)

	require.Len(t, c.trips, 1)
	assert.Equal(t, "WD", c.trips[0].ServiceID)

	require.Len(t, c.stopTimes, 2)
	assert.Equal(t, models.ClockTime(8*3600+10*60), c.stopTimes[1].Arrival)
	assert.Equal(t, models.ClockTime(8*3600+11*60), c.stopTimes[1].Departure)

	require.Len(t, c.calendars, 1)
	cal := c.calendars[0]
	assert.True(t, cal.Weekdays[1], "monday")
	assert.False(t, cal.Weekdays[6], "saturday")
	assert.False(t, cal.Weekdays[0], "sunday")
}

func TestParseDirectoryMissingRequiredFile(t *testing.T) {
	files := minimalFiles()
	delete(files, "stop_times.txt")
	dir := writeDataset(t, files)
	var c collector
	err := New(logger.Nop()).ParseDirectory(context.Background(), Options{Dir: dir}, c.callbacks())
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestParseDirectoryOptionalCalendarFiles(t *testing.T) {
	files := minimalFiles()
	delete(files, "calendar.txt")
	files["calendar_dates.txt"] = []string{
		"service_id,date,exception_type",
		"WD,20250310,1",
	}
	dir := writeDataset(t, files)
	var c collector
	err := New(logger.Nop()).ParseDirectory(context.Background(), Options{Dir: dir}, c.callbacks())
	require.NoError(t, err)
	require.Len(t, c.calendarDates, 1)
	assert.True(t, c.calendarDates[0].Available)
}

func TestParseDirectoryMissingRequiredColumn(t *testing.T) {
	files := minimalFiles()
	files["routes.txt"] = []string{
		"route_id,route_short_name",
		"R1,11",
	}
	dir := writeDataset(t, files)
	var c collector
	err := New(logger.Nop()).ParseDirectory(context.Background(), Options{Dir: dir}, c.callbacks())
	assert.ErrorIs(t, err, models.ErrMalformed)
	assert.Contains(t, err.Error(), "route_type")
}

func TestParseDirectoryMalformedTime(t *testing.T) {
	files := minimalFiles()
	files["stop_times.txt"] = []string{
		"trip_id,stop_sequence,stop_id,arrival_time,departure_time",
		"T1,1,S1,08:xx:00,08:00:00",
	}
	dir := writeDataset(t, files)
	var c collector
	err := New(logger.Nop()).ParseDirectory(context.Background(), Options{Dir: dir}, c.callbacks())
	assert.ErrorIs(t, err, models.ErrMalformed)
	assert.Contains(t, err.Error(), "stop_times.txt line 2")
}

func TestParseDirectoryInterpolatedTimepoint(t *testing.T) {
	files := minimalFiles()
	files["stop_times.txt"] = []string{
		"trip_id,stop_sequence,stop_id,arrival_time,departure_time,timepoint",
		"T1,1,S1,08:00:00,08:00:00,1",
		"T1,2,S2,,,0",
	}
	dir := writeDataset(t, files)
	var c collector
	err := New(logger.Nop()).ParseDirectory(context.Background(), Options{Dir: dir}, c.callbacks())
	assert.ErrorIs(t, err, models.ErrUnsupported)
}

func TestParseDirectoryBOMHeader(t *testing.T) {
	files := minimalFiles()
	files["stops.txt"][0] = "\ufeff" + files["stops.txt"][0]
	dir := writeDataset(t, files)
	var c collector
	err := New(logger.Nop()).ParseDirectory(context.Background(), Options{Dir: dir}, c.callbacks())
	require.NoError(t, err)
	assert.Equal(t, "S1", c.stops[0].StopID)
}

func TestParseDirectoryTransferNodeColumn(t *testing.T) {
	files := minimalFiles()
	files["stops.txt"] = []string{
		"stop_id,stop_name,location_type,parent_station,asw_node_id",
		"S1,First Street,0,,42",
		"S2,Second Street,0,,42",
	}
	dir := writeDataset(t, files)
	var c collector
	opts := Options{Dir: dir, TransferNodeColumn: "asw_node_id"}
	err := New(logger.Nop()).ParseDirectory(context.Background(), opts, c.callbacks())
	require.NoError(t, err)
	assert.Equal(t, "42", c.stops[0].TransferNodeID)
	assert.Equal(t, "42", c.stops[1].TransferNodeID)
}

func TestParseDirectoryTransfers(t *testing.T) {
	files := minimalFiles()
	files["transfers.txt"] = []string{
		"from_stop_id,to_stop_id,transfer_type,min_transfer_time,from_trip_id,to_trip_id",
		"S1,S2,2,120,,",
		"S2,S1,2,90,T1,",
		"S1,S1,2,45,,",
	}
	dir := writeDataset(t, files)
	var c collector
	opts := Options{Dir: dir, ReadTransfers: true}
	err := New(logger.Nop()).ParseDirectory(context.Background(), opts, c.callbacks())
	require.NoError(t, err)

	// The trip-qualified record is skipped, the self loop kept.
	require.Len(t, c.transfers, 2)
	assert.Equal(t, "S2", c.transfers[0].ToStopID)
	assert.Equal(t, 120, c.transfers[0].MinSeconds)
	assert.Equal(t, "S1", c.transfers[1].ToStopID)
}

func TestParseDirectoryTransfersRequiredInMode(t *testing.T) {
	dir := writeDataset(t, minimalFiles())
	var c collector
	opts := Options{Dir: dir, ReadTransfers: true}
	err := New(logger.Nop()).ParseDirectory(context.Background(), opts, c.callbacks())
	assert.ErrorIs(t, err, ErrMissingFile)
}
