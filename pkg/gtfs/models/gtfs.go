package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformed signals that the dataset does not comply with the GTFS
// Schedule specification.
var ErrMalformed = errors.New("malformed GTFS data")

// ErrUnsupported signals a GTFS feature this engine does not implement but
// which the dataset structurally requires.
var ErrUnsupported = errors.New("unsupported GTFS feature")

// LocationType is the stops.location_type field: what kind of location a
// Stop record represents.
type LocationType int

const (
	LocationStopOrPlatform LocationType = 0
	LocationStation        LocationType = 1
	LocationEntranceExit   LocationType = 2
	LocationGenericNode    LocationType = 3
	LocationBoardingArea   LocationType = 4
)

// ParseLocationType converts a stops.location_type field value.
func ParseLocationType(value int) (LocationType, error) {
	if value < 0 || value > 4 {
		return 0, fmt.Errorf("stops.location_type %d not in valid range: %w", value, ErrMalformed)
	}
	return LocationType(value), nil
}

// Stop is a single record in stops.txt: a location where passengers board
// and disembark vehicles, or a grouping of such locations.
type Stop struct {
	StopID         string
	StopName       string
	LocationType   LocationType
	ParentStation  string
	TransferNodeID string
}

// RouteType is the mode of transport of a route.
type RouteType int

const (
	RouteTramLightRail RouteType = iota
	RouteMetroSubway
	RouteRail
	RouteBus
	RouteFerry
	RouteCableTram
	RouteAerialLift
	RouteFunicular
	RouteTrolleybus
	RouteMonorail
)

// ParseRouteType converts a routes.route_type field value. All classic
// values are supported, along with the Google extended values that map onto
// a classic mode. Extended values without a classic equivalent (taxi,
// miscellaneous, horse carriage) are rejected as unsupported.
func ParseRouteType(value int) (RouteType, error) {
	switch {
	case value == 0 || (value >= 900 && value <= 906):
		return RouteTramLightRail, nil
	case value == 1 || (value >= 400 && value <= 404):
		return RouteMetroSubway, nil
	case value == 2 || (value >= 100 && value <= 117):
		return RouteRail, nil
	case value == 3 || (value >= 200 && value <= 209) || (value >= 700 && value <= 716):
		return RouteBus, nil
	case value == 4 || value == 1000 || value == 1200:
		return RouteFerry, nil
	case value == 5:
		return RouteCableTram, nil
	case value == 6 || (value >= 1300 && value <= 1307):
		return RouteAerialLift, nil
	case value == 7 || value == 1400:
		return RouteFunicular, nil
	case value == 11 || value == 800:
		return RouteTrolleybus, nil
	case value == 12 || value == 405:
		return RouteMonorail, nil
	case value == 1100 || value == 1700 || value == 1702 || (value >= 1500 && value <= 1507):
		return 0, fmt.Errorf("routes.route_type %d: %w", value, ErrUnsupported)
	default:
		return 0, fmt.Errorf("routes.route_type %d not in valid range: %w", value, ErrMalformed)
	}
}

// String returns a human-readable name for the route type.
func (t RouteType) String() string {
	switch t {
	case RouteTramLightRail, RouteCableTram:
		return "tram"
	case RouteMetroSubway:
		return "metro"
	case RouteRail, RouteMonorail:
		return "train"
	case RouteBus:
		return "bus"
	case RouteFerry:
		return "ferry"
	case RouteAerialLift, RouteFunicular:
		return "cable car"
	case RouteTrolleybus:
		return "trolleybus"
	default:
		return "unknown"
	}
}

// Route is a single record in routes.txt: a group of trips presented to
// riders under a common name.
type Route struct {
	RouteID        string
	RouteShortName string
	RouteLongName  string
	RouteType      RouteType
}

// ShortName returns the short name of the route, falling back to the long
// name. At least one of the two is guaranteed non-empty after loading.
func (r *Route) ShortName() string {
	if r.RouteShortName != "" {
		return r.RouteShortName
	}
	return r.RouteLongName
}

// Trip is a single record in trips.txt: one vehicle run along a scheduled
// path on the days selected by its service.
type Trip struct {
	TripID        string
	RouteID       string
	ServiceID     string
	TripShortName string
}

// PickupDropOffType is the stop_times.pickup_type / drop_off_type field:
// whether passengers can board or disembark at a stop time, and how.
type PickupDropOffType int

const (
	PickupDropOffRegular     PickupDropOffType = 0
	PickupDropOffNone        PickupDropOffType = 1
	PickupDropOffPhoneAgency PickupDropOffType = 2
	PickupDropOffCoordinated PickupDropOffType = 3
)

// ParsePickupDropOffType converts a pickup_type or drop_off_type field value.
func ParsePickupDropOffType(value int) (PickupDropOffType, error) {
	if value < 0 || value > 3 {
		return 0, fmt.Errorf("stop_times pickup/drop_off type %d not in valid range: %w", value, ErrMalformed)
	}
	return PickupDropOffType(value), nil
}

// StopTime is a single record in stop_times.txt: one scheduled visit of a
// trip to a stop. Arrival and Departure are offsets from the service-day
// midnight and may exceed 24 hours for overnight trips.
type StopTime struct {
	TripID       string
	StopSequence int
	StopID       string
	Arrival      ClockTime
	Departure    ClockTime
	PickupType   PickupDropOffType
	DropOffType  PickupDropOffType
}

// Calendar is a single record in calendar.txt: a weekly recurrence pattern
// bounded by a date range. Weekdays is indexed by time.Weekday.
type Calendar struct {
	ServiceID string
	Weekdays  [7]bool
	StartDate time.Time
	EndDate   time.Time
}

// CalendarDate is a single record in calendar_dates.txt: a single-day
// exception to a weekly pattern. Available is true for exception_type 1
// (service added) and false for 2 (service removed).
type CalendarDate struct {
	ServiceID string
	Date      time.Time
	Available bool
}

// TransferType describes where a walking edge between two stops came from:
// a transfers.txt record, or one of the synthesized groupings.
type TransferType int

const (
	TransferRecorded      TransferType = iota // transfers.txt record
	TransferGuaranteed                        // transfers.txt, transfer_type 1
	TransferTimed                             // transfers.txt, transfer_type 2
	TransferByNodeID                          // stops sharing the configured node column
	TransferByParentStation                   // stops sharing parent_station
	TransferSameStop                          // implicit zero-cost self edge
)

// ParseTransferType converts a transfers.transfer_type field value.
func ParseTransferType(value int) (TransferType, error) {
	switch value {
	case 0, 3, 4, 5:
		return TransferRecorded, nil
	case 1:
		return TransferGuaranteed, nil
	case 2:
		return TransferTimed, nil
	default:
		return 0, fmt.Errorf("transfers.transfer_type %d not in valid range: %w", value, ErrMalformed)
	}
}

// Transfer is a directed walking edge between two stops, with the minimum
// number of seconds the walk takes. FromStopID and ToStopID may be equal.
type Transfer struct {
	FromStopID string
	ToStopID   string
	Type       TransferType
	MinSeconds int
}
