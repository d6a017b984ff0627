package dataset

import (
	"sort"

	"github.com/journeyfinder/pkg/gtfs/models"
)

// Departure is one boardable absolute-time departure at a stop.
type Departure struct {
	StopTime *models.StopTime
	// ServiceDay is the UTC midnight Unix instant of the service day the
	// trip belongs to. For an overnight stop time this lies one or more
	// days before the calendar day of the departure itself.
	ServiceDay int64
	// Instant is ServiceDay plus the departure clock time.
	Instant int64
}

// DepartureCursor enumerates the departures at one stop in increasing
// absolute-instant order, filtered to stop times whose trip's service is
// active on the matching service day and which allow boarding.
//
// The per-stop departure list is sorted by departure time modulo 24 hours.
// The cursor scans the remainder of the current calendar day, then wraps
// once onto the following day, stopping 24 hours after its current
// position (the last departure it returned, or the starting instant); the
// window slides forward with every departure found. A stop with no
// boardable departure within 24 hours of that position yields nothing
// further, which is why horizons above 24 hours carry no correctness
// guarantee.
type DepartureCursor struct {
	ds         *Dataset
	departures []*models.StopTime
	// day is the UTC midnight of the calendar day under the scan position.
	day int64
	// idx is the list index of the current departure; before the first
	// Next it sits one before the first candidate at or after the start.
	idx int
	// timeOfDay is the scan position within the day; the wrap onto the
	// next day ends when it comes around again.
	timeOfDay models.ClockTime
}

// Departures positions a cursor at the first departure from the stop at or
// after the given instant. When inclusive is false, departures at exactly
// the instant are skipped; an arrival by vehicle cannot board a same-second
// departure, while a search origin or a finished walk can.
func (d *Dataset) Departures(stopID string, from int64, inclusive bool) *DepartureCursor {
	departures := d.departuresByStop[stopID]
	timeOfDay := models.ClockTime(from - models.DayStart(from))
	idx := sort.Search(len(departures), func(i int) bool {
		rem := departures[i].Departure.TimeOfDay()
		if inclusive {
			return rem >= timeOfDay
		}
		return rem > timeOfDay
	})
	return &DepartureCursor{
		ds:         d,
		departures: departures,
		day:        models.DayStart(from),
		idx:        idx - 1,
		timeOfDay:  timeOfDay,
	}
}

// Next advances to the following boardable departure and returns it, or
// reports that none remains within the cursor's window.
func (c *DepartureCursor) Next() (Departure, bool) {
	// Finish the current calendar day first.
	for i := c.idx + 1; i < len(c.departures); i++ {
		if dep, ok := c.take(i, c.day); ok {
			return dep, true
		}
	}

	// Wrap onto the next day, up to 24 hours past the starting position.
	nextDay := c.day + models.SecondsPerDay
	for i := 0; i < len(c.departures); i++ {
		if c.departures[i].Departure.TimeOfDay() >= c.timeOfDay {
			break
		}
		if dep, ok := c.take(i, nextDay); ok {
			return dep, true
		}
	}
	c.idx = len(c.departures)
	return Departure{}, false
}

// take tests the departure at index i against the calendar for the scan
// day and, on success, moves the cursor onto it.
func (c *DepartureCursor) take(i int, day int64) (Departure, bool) {
	stopTime := c.departures[i]
	if stopTime.PickupType == models.PickupDropOffNone {
		return Departure{}, false
	}
	days, rem := stopTime.Departure.DaySplit()
	serviceDay := day - int64(days)*models.SecondsPerDay
	trip := c.ds.trips[stopTime.TripID]
	if !c.ds.ServiceActive(trip.ServiceID, serviceDay) {
		return Departure{}, false
	}
	c.idx = i
	c.day = day
	c.timeOfDay = rem
	return Departure{
		StopTime:   stopTime,
		ServiceDay: serviceDay,
		Instant:    serviceDay + int64(stopTime.Departure),
	}, true
}
