package journey

import (
	"math"

	"github.com/journeyfinder/pkg/gtfs/models"
)

// Segment is one leg of a journey: a vehicle ride or a walk.
type Segment interface {
	Origin() *models.Stop
	Target() *models.Stop
	DepartsAt() int64
	ArrivesAt() int64
}

// TripSegment is a ride on one trip from a boarding stop time to an
// alighting stop time.
type TripSegment struct {
	Trip   *models.Trip
	Route  *models.Route
	From   *models.Stop
	To     *models.Stop
	Board  *models.StopTime
	Alight *models.StopTime
	// ServiceDay is the UTC midnight Unix instant of the trip's service
	// day; an overnight leg departs on a later calendar day than this.
	ServiceDay int64
	Departure  int64
	Arrival    int64
}

func (s *TripSegment) Origin() *models.Stop { return s.From }
func (s *TripSegment) Target() *models.Stop { return s.To }
func (s *TripSegment) DepartsAt() int64     { return s.Departure }
func (s *TripSegment) ArrivesAt() int64     { return s.Arrival }

// TransferSegment is a walk along one transfer edge.
type TransferSegment struct {
	Transfer  *models.Transfer
	From      *models.Stop
	To        *models.Stop
	Departure int64
	Arrival   int64
}

func (s *TransferSegment) Origin() *models.Stop { return s.From }
func (s *TransferSegment) Target() *models.Stop { return s.To }
func (s *TransferSegment) DepartsAt() int64     { return s.Departure }
func (s *TransferSegment) ArrivesAt() int64     { return s.Arrival }

// Journey is an immutable sequence of segments from an origin stop to the
// stop its last segment arrives at. Journeys share structure: extending
// one prepends nothing and copies nothing, it allocates a single node
// pointing at the unchanged prefix. The nil *Journey is the empty journey
// at a search origin.
type Journey struct {
	prev *Journey
	seg  Segment

	firstDeparture int64
	trips          int
}

// Extend returns the journey continued by one more segment.
func (j *Journey) Extend(seg Segment) *Journey {
	next := &Journey{prev: j, seg: seg}
	if j == nil {
		next.firstDeparture = seg.DepartsAt()
	} else {
		next.firstDeparture = j.firstDeparture
		next.trips = j.trips
	}
	if _, ok := seg.(*TripSegment); ok {
		next.trips++
	}
	return next
}

// Empty reports whether the journey has no segments.
func (j *Journey) Empty() bool { return j == nil }

// FirstDeparture returns the instant the journey leaves its origin. The
// empty journey has not departed and returns the +infinity sentinel.
func (j *Journey) FirstDeparture() int64 {
	if j == nil {
		return math.MaxInt64
	}
	return j.firstDeparture
}

// Arrival returns the instant the journey reaches its final stop.
func (j *Journey) Arrival() int64 {
	if j == nil {
		return 0
	}
	return j.seg.ArrivesAt()
}

// Transfers returns the number of vehicle changes.
func (j *Journey) Transfers() int {
	if j == nil || j.trips == 0 {
		return 0
	}
	return j.trips - 1
}

// Quality returns the journey's comparison key for the best-known table at
// the stop it ends on.
func (j *Journey) Quality() Quality {
	return Quality{FirstDeparture: j.FirstDeparture(), Transfers: j.Transfers()}
}

// Segments materializes the shared-prefix chain into a slice, origin leg
// first.
func (j *Journey) Segments() []Segment {
	n := 0
	for node := j; node != nil; node = node.prev {
		n++
	}
	segments := make([]Segment, n)
	for node := j; node != nil; node = node.prev {
		n--
		segments[n] = node.seg
	}
	return segments
}

// Open is a journey that has boarded a trip and not yet alighted. The
// prefix ends at the boarding stop.
type Open struct {
	Prefix     *Journey
	Trip       *models.Trip
	Board      *models.StopTime
	ServiceDay int64
	Departure  int64
}

// Quality returns the comparison key for the best-known table at the
// boarded trip. Every trip already ridden in the prefix will have become a
// transfer once this trip is left, so the count is the full trip count.
func (o *Open) Quality() Quality {
	if o.Prefix == nil {
		return Quality{FirstDeparture: o.Departure, Transfers: 0}
	}
	return Quality{FirstDeparture: o.Prefix.FirstDeparture(), Transfers: o.Prefix.trips}
}

// Quality orders competing prefixes that reached the same place at the
// same frontier instant. The frontier itself fixes the arrival component:
// an entry is only ever challenged by a proposal arriving at or after it,
// so the deciding axes are the departure from the origin (later is better,
// the documented shortest-duration tie-break) and the transfer count
// (fewer is better). The empty journey carries the +infinity departure
// sentinel and beats everything.
type Quality struct {
	FirstDeparture int64
	Transfers      int
}

// Better reports whether q is strictly better than other.
func (q Quality) Better(other Quality) bool {
	if q.FirstDeparture != other.FirstDeparture {
		return q.FirstDeparture > other.FirstDeparture
	}
	return q.Transfers < other.Transfers
}
