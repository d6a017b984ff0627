package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/journeyfinder/internal/common/config"
	"github.com/journeyfinder/internal/common/logger"
	"github.com/journeyfinder/internal/gtfs/parser"
	"github.com/journeyfinder/pkg/gtfs/models"
)

// ErrUnknownStop is returned by lookups for stop ids absent from the
// dataset.
var ErrUnknownStop = errors.New("unknown stop")

// Dataset is the indexed in-memory schedule. It is built once at startup
// and read-only afterwards, so it can be shared freely between queries.
type Dataset struct {
	cfg config.DatasetConfig

	stops  map[string]*models.Stop
	routes map[string]*models.Route
	trips  map[string]*models.Trip

	// stopTimesByTrip holds each trip's visits ordered by stop_sequence.
	stopTimesByTrip map[string][]*models.StopTime
	// departuresByStop holds each stop's departures ordered by departure
	// time reduced modulo 24 hours, the order the departure cursor scans.
	departuresByStop map[string][]*models.StopTime

	calendar      map[string]*models.Calendar
	calendarDates map[exceptionKey]bool

	// transfersByStop is the fully materialized walking relation for the
	// configured transfer mode: for every stop, the zero-cost self edge
	// followed by the outgoing edges ordered by walking time.
	transfersByStop map[string][]*models.Transfer
}

type exceptionKey struct {
	serviceID string
	day       int64
}

// Load reads the GTFS directory into a Dataset and builds every index the
// search consults.
func Load(ctx context.Context, cfg config.DatasetConfig, log logger.Logger) (*Dataset, error) {
	d := &Dataset{
		cfg:              cfg,
		stops:            make(map[string]*models.Stop),
		routes:           make(map[string]*models.Route),
		trips:            make(map[string]*models.Trip),
		stopTimesByTrip:  make(map[string][]*models.StopTime),
		departuresByStop: make(map[string][]*models.StopTime),
		calendar:         make(map[string]*models.Calendar),
		calendarDates:    make(map[exceptionKey]bool),
	}

	opts := parser.Options{
		Dir:           cfg.Path,
		ReadTransfers: cfg.TransferMode == config.TransferByTransfersTxt,
	}
	if cfg.TransferMode == config.TransferByNodeID {
		opts.TransferNodeColumn = cfg.TransferNodeColumn
	}

	var transfers []*models.Transfer
	callbacks := parser.Callbacks{
		OnStop: func(stop *models.Stop) error {
			d.stops[stop.StopID] = stop
			return nil
		},
		OnRoute: func(route *models.Route) error {
			d.routes[route.RouteID] = route
			return nil
		},
		OnTrip: func(trip *models.Trip) error {
			d.trips[trip.TripID] = trip
			return nil
		},
		OnStopTime: func(stopTime *models.StopTime) error {
			d.stopTimesByTrip[stopTime.TripID] = append(d.stopTimesByTrip[stopTime.TripID], stopTime)
			d.departuresByStop[stopTime.StopID] = append(d.departuresByStop[stopTime.StopID], stopTime)
			return nil
		},
		OnCalendar: func(calendar *models.Calendar) error {
			d.calendar[calendar.ServiceID] = calendar
			return nil
		},
		OnCalendarDate: func(calendarDate *models.CalendarDate) error {
			key := exceptionKey{calendarDate.ServiceID, calendarDate.Date.Unix()}
			d.calendarDates[key] = calendarDate.Available
			return nil
		},
		OnTransfer: func(transfer *models.Transfer) error {
			transfers = append(transfers, transfer)
			return nil
		},
	}

	start := time.Now()
	if err := parser.New(log).ParseDirectory(ctx, opts, callbacks); err != nil {
		return nil, err
	}
	if err := d.finalize(transfers); err != nil {
		return nil, err
	}

	log.Info("Dataset loaded",
		"path", cfg.Path,
		"stops", len(d.stops),
		"routes", len(d.routes),
		"trips", len(d.trips),
		"transfer_mode", cfg.TransferMode,
		"duration", time.Since(start).String(),
	)
	return d, nil
}

// finalize checks cross-file references and builds the sorted sequences and
// the walking relation.
func (d *Dataset) finalize(transfers []*models.Transfer) error {
	// Services defined purely by calendar_dates rows are legal.
	exceptionServices := make(map[string]struct{}, len(d.calendarDates))
	for key := range d.calendarDates {
		exceptionServices[key.serviceID] = struct{}{}
	}
	for _, trip := range d.trips {
		if _, ok := d.routes[trip.RouteID]; !ok {
			return fmt.Errorf("trip %s references unknown route %s: %w", trip.TripID, trip.RouteID, models.ErrMalformed)
		}
		if _, ok := d.calendar[trip.ServiceID]; !ok {
			if _, ok := exceptionServices[trip.ServiceID]; !ok {
				return fmt.Errorf("trip %s references unknown service %s: %w", trip.TripID, trip.ServiceID, models.ErrMalformed)
			}
		}
	}
	for tripID, visits := range d.stopTimesByTrip {
		if _, ok := d.trips[tripID]; !ok {
			return fmt.Errorf("stop time references unknown trip %s: %w", tripID, models.ErrMalformed)
		}
		for _, visit := range visits {
			if _, ok := d.stops[visit.StopID]; !ok {
				return fmt.Errorf("trip %s visits unknown stop %s: %w", tripID, visit.StopID, models.ErrMalformed)
			}
		}
		sort.Slice(visits, func(i, j int) bool {
			return visits[i].StopSequence < visits[j].StopSequence
		})
	}
	for _, departures := range d.departuresByStop {
		sort.SliceStable(departures, func(i, j int) bool {
			return departures[i].Departure.TimeOfDay() < departures[j].Departure.TimeOfDay()
		})
	}
	return d.buildTransfers(transfers)
}

// StopByID returns the stop with the given id.
func (d *Dataset) StopByID(stopID string) (*models.Stop, error) {
	stop, ok := d.stops[stopID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStop, stopID)
	}
	return stop, nil
}

// TripByID returns the trip with the given id. Ids handed out by the index
// itself always resolve.
func (d *Dataset) TripByID(tripID string) *models.Trip {
	return d.trips[tripID]
}

// RouteByID returns the route with the given id.
func (d *Dataset) RouteByID(routeID string) *models.Route {
	return d.routes[routeID]
}

// StopTimesForTrip returns the trip's visits ordered by stop sequence.
func (d *Dataset) StopTimesForTrip(tripID string) []*models.StopTime {
	return d.stopTimesByTrip[tripID]
}

// NextStopTime returns the visit following the given stop sequence on a
// trip, or nil at the end of the trip.
func (d *Dataset) NextStopTime(tripID string, afterSequence int) *models.StopTime {
	visits := d.stopTimesByTrip[tripID]
	idx := sort.Search(len(visits), func(i int) bool {
		return visits[i].StopSequence > afterSequence
	})
	if idx == len(visits) {
		return nil
	}
	return visits[idx]
}

// ServiceActive reports whether the service runs on the service day given
// as a UTC midnight Unix instant. Single-day exceptions take precedence
// over the weekly pattern.
func (d *Dataset) ServiceActive(serviceID string, day int64) bool {
	if available, ok := d.calendarDates[exceptionKey{serviceID, day}]; ok {
		return available
	}
	calendar, ok := d.calendar[serviceID]
	if !ok {
		return false
	}
	date := time.Unix(day, 0).UTC()
	return !date.Before(calendar.StartDate) && !date.After(calendar.EndDate) &&
		calendar.Weekdays[date.Weekday()]
}

// Stops iterates all stops in the dataset.
func (d *Dataset) Stops(yield func(*models.Stop)) {
	for _, stop := range d.stops {
		yield(stop)
	}
}
