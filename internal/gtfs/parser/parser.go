package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/journeyfinder/internal/common/logger"
	"github.com/journeyfinder/pkg/gtfs/models"
)

// ErrMissingFile signals that a file the configuration requires is absent
// from the dataset directory.
var ErrMissingFile = errors.New("missing dataset file")

type Parser struct {
	logger logger.Logger
}

func New(logger logger.Logger) *Parser {
	return &Parser{logger: logger}
}

// Options select the optional parts of the dataset.
type Options struct {
	// Dir is the dataset directory holding the .txt files.
	Dir string
	// TransferNodeColumn is the stops.txt column read into
	// Stop.TransferNodeID. Empty disables the lookup.
	TransferNodeColumn string
	// ReadTransfers makes transfers.txt a required input.
	ReadTransfers bool
}

type Callbacks struct {
	OnStop         func(stop *models.Stop) error
	OnRoute        func(route *models.Route) error
	OnTrip         func(trip *models.Trip) error
	OnStopTime     func(stopTime *models.StopTime) error
	OnCalendar     func(calendar *models.Calendar) error
	OnCalendarDate func(calendarDate *models.CalendarDate) error
	OnTransfer     func(transfer *models.Transfer) error
	OnFileComplete func(fileName string) error
}

// tableSpec binds a file to its required columns and row handler.
type tableSpec struct {
	name     string
	required bool
	columns  []string
	row      func(p *Parser, opts Options, cb Callbacks, row *record) error
}

// ParseDirectory reads the GTFS files from the dataset directory in
// dependency order, invoking a callback per parsed record. The first
// malformed row, missing required column or missing required file aborts
// the whole load.
func (p *Parser) ParseDirectory(ctx context.Context, opts Options, cb Callbacks) error {
	tables := []tableSpec{
		{"stops.txt", true, []string{"stop_id"}, parseStop},
		{"routes.txt", true, []string{"route_id", "route_type"}, parseRoute},
		{"calendar.txt", false, []string{"service_id", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "start_date", "end_date"}, parseCalendar},
		{"calendar_dates.txt", false, []string{"service_id", "date", "exception_type"}, parseCalendarDate},
		{"trips.txt", true, []string{"trip_id", "route_id", "service_id"}, parseTrip},
		{"stop_times.txt", true, []string{"trip_id", "stop_sequence", "stop_id", "arrival_time", "departure_time"}, parseStopTime},
	}
	if opts.ReadTransfers {
		tables = append(tables, tableSpec{"transfers.txt", true, []string{"from_stop_id", "to_stop_id"}, parseTransfer})
	}

	for _, table := range tables {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := p.parseFile(opts, table, cb); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseFile(opts Options, table tableSpec, cb Callbacks) error {
	path := filepath.Join(opts.Dir, table.name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			if !table.required {
				p.logger.Debug("Optional file not present", "file", table.name)
				return nil
			}
			return fmt.Errorf("%s: %w", table.name, ErrMissingFile)
		}
		return fmt.Errorf("opening %s: %w", table.name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%s: reading header: %w", table.name, err)
	}
	if len(header) > 0 {
		// stops.txt and friends are frequently exported with a UTF-8 BOM
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.TrimSpace(h)] = i
	}
	for _, col := range table.columns {
		if _, ok := headerMap[col]; !ok {
			return fmt.Errorf("%s: missing required column %q: %w", table.name, col, models.ErrMalformed)
		}
	}

	count := 0
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("%s line %d: %w", table.name, line, err)
		}
		row := &record{fields: fields, header: headerMap}
		if err := table.row(p, opts, cb, row); err != nil {
			return fmt.Errorf("%s line %d: %w", table.name, line, err)
		}
		count++
		if count%100000 == 0 {
			p.logger.Debug("Progress", "file", table.name, "records", count)
		}
	}
	p.logger.Info("File parsed", "file", table.name, "records", count)

	if cb.OnFileComplete != nil {
		if err := cb.OnFileComplete(table.name); err != nil {
			return fmt.Errorf("%s: file complete callback: %w", table.name, err)
		}
	}
	return nil
}

// record gives field access by column name for one CSV row.
type record struct {
	fields []string
	header map[string]int
}

func (r *record) get(field string) string {
	if idx, ok := r.header[field]; ok && idx < len(r.fields) {
		return strings.TrimSpace(r.fields[idx])
	}
	return ""
}

func (r *record) getInt(field string, defaultVal int) (int, error) {
	str := r.get(field)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("field %s %q is not a number: %w", field, str, models.ErrMalformed)
	}
	return val, nil
}

func parseStop(p *Parser, opts Options, cb Callbacks, row *record) error {
	locationValue, err := row.getInt("location_type", 0)
	if err != nil {
		return err
	}
	locationType, err := models.ParseLocationType(locationValue)
	if err != nil {
		return err
	}
	stop := &models.Stop{
		StopID:        row.get("stop_id"),
		StopName:      row.get("stop_name"),
		LocationType:  locationType,
		ParentStation: row.get("parent_station"),
	}
	if opts.TransferNodeColumn != "" {
		stop.TransferNodeID = row.get(opts.TransferNodeColumn)
	}
	if stop.StopID == "" {
		return fmt.Errorf("empty stop_id: %w", models.ErrMalformed)
	}
	if cb.OnStop != nil {
		return cb.OnStop(stop)
	}
	return nil
}

func parseRoute(p *Parser, opts Options, cb Callbacks, row *record) error {
	typeValue, err := row.getInt("route_type", 0)
	if err != nil {
		return err
	}
	routeType, err := models.ParseRouteType(typeValue)
	if err != nil {
		return err
	}
	route := &models.Route{
		RouteID:        row.get("route_id"),
		RouteShortName: row.get("route_short_name"),
		RouteLongName:  row.get("route_long_name"),
		RouteType:      routeType,
	}
	if route.RouteShortName == "" && route.RouteLongName == "" {
		return fmt.Errorf("route %s has neither short nor long name: %w", route.RouteID, models.ErrMalformed)
	}
	if cb.OnRoute != nil {
		return cb.OnRoute(route)
	}
	return nil
}

func parseTrip(p *Parser, opts Options, cb Callbacks, row *record) error {
	trip := &models.Trip{
		TripID:        row.get("trip_id"),
		RouteID:       row.get("route_id"),
		ServiceID:     row.get("service_id"),
		TripShortName: row.get("trip_short_name"),
	}
	if cb.OnTrip != nil {
		return cb.OnTrip(trip)
	}
	return nil
}

func parseStopTime(p *Parser, opts Options, cb Callbacks, row *record) error {
	arrivalField := row.get("arrival_time")
	departureField := row.get("departure_time")
	if arrivalField == "" || departureField == "" {
		// Interpolated timepoints have no usable schedule instant.
		if timepoint, err := row.getInt("timepoint", 1); err == nil && timepoint == 0 {
			return fmt.Errorf("stop_times.timepoint=0 without explicit times: %w", models.ErrUnsupported)
		}
		return fmt.Errorf("empty arrival_time or departure_time: %w", models.ErrMalformed)
	}
	if row.get("location_id") != "" || row.get("location_group_id") != "" {
		if row.get("stop_id") == "" {
			return fmt.Errorf("stop_times row served by a location group: %w", models.ErrUnsupported)
		}
	}

	arrival, err := models.ParseClockTime(arrivalField)
	if err != nil {
		return err
	}
	departure, err := models.ParseClockTime(departureField)
	if err != nil {
		return err
	}
	sequence, err := row.getInt("stop_sequence", 0)
	if err != nil {
		return err
	}
	pickupValue, err := row.getInt("pickup_type", 0)
	if err != nil {
		return err
	}
	pickup, err := models.ParsePickupDropOffType(pickupValue)
	if err != nil {
		return err
	}
	dropOffValue, err := row.getInt("drop_off_type", 0)
	if err != nil {
		return err
	}
	dropOff, err := models.ParsePickupDropOffType(dropOffValue)
	if err != nil {
		return err
	}
	stopTime := &models.StopTime{
		TripID:       row.get("trip_id"),
		StopSequence: sequence,
		StopID:       row.get("stop_id"),
		Arrival:      arrival,
		Departure:    departure,
		PickupType:   pickup,
		DropOffType:  dropOff,
	}
	if cb.OnStopTime != nil {
		return cb.OnStopTime(stopTime)
	}
	return nil
}

func parseCalendar(p *Parser, opts Options, cb Callbacks, row *record) error {
	startDate, err := models.ParseDate(row.get("start_date"))
	if err != nil {
		return err
	}
	endDate, err := models.ParseDate(row.get("end_date"))
	if err != nil {
		return err
	}
	calendar := &models.Calendar{
		ServiceID: row.get("service_id"),
		StartDate: startDate,
		EndDate:   endDate,
	}
	days := []struct {
		column  string
		weekday int
	}{
		{"monday", 1}, {"tuesday", 2}, {"wednesday", 3}, {"thursday", 4},
		{"friday", 5}, {"saturday", 6}, {"sunday", 0},
	}
	for _, day := range days {
		val, err := row.getInt(day.column, 0)
		if err != nil {
			return err
		}
		calendar.Weekdays[day.weekday] = val == 1
	}
	if cb.OnCalendar != nil {
		return cb.OnCalendar(calendar)
	}
	return nil
}

func parseCalendarDate(p *Parser, opts Options, cb Callbacks, row *record) error {
	date, err := models.ParseDate(row.get("date"))
	if err != nil {
		return err
	}
	exceptionType, err := row.getInt("exception_type", 0)
	if err != nil {
		return err
	}
	if exceptionType != 1 && exceptionType != 2 {
		return fmt.Errorf("calendar_dates.exception_type %d not in valid range: %w", exceptionType, models.ErrMalformed)
	}
	calendarDate := &models.CalendarDate{
		ServiceID: row.get("service_id"),
		Date:      date,
		Available: exceptionType == 1,
	}
	if cb.OnCalendarDate != nil {
		return cb.OnCalendarDate(calendarDate)
	}
	return nil
}

func parseTransfer(p *Parser, opts Options, cb Callbacks, row *record) error {
	// Only stop-to-stop transfers are supported; records qualified by trip
	// or route are skipped.
	for _, qualifier := range []string{"from_trip_id", "to_trip_id", "from_route_id", "to_route_id"} {
		if row.get(qualifier) != "" {
			return nil
		}
	}
	typeValue, err := row.getInt("transfer_type", 0)
	if err != nil {
		return err
	}
	transferType, err := models.ParseTransferType(typeValue)
	if err != nil {
		return err
	}
	minSeconds, err := row.getInt("min_transfer_time", 0)
	if err != nil {
		return err
	}
	transfer := &models.Transfer{
		FromStopID: row.get("from_stop_id"),
		ToStopID:   row.get("to_stop_id"),
		Type:       transferType,
		MinSeconds: minSeconds,
	}
	if cb.OnTransfer != nil {
		return cb.OnTransfer(transfer)
	}
	return nil
}
