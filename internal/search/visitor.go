package search

import (
	"sort"

	"github.com/journeyfinder/internal/dataset"
	"github.com/journeyfinder/internal/journey"
	"github.com/journeyfinder/pkg/gtfs/models"
)

// A visitor is one frontier position of the search: standing at a stop,
// riding a trip, or walking a transfer edge. The three kinds form a closed
// set; the driver only ever sees the two-method capability.
type visitor interface {
	// nextEvent returns the absolute instant of the visitor's next action.
	nextEvent() int64
	// step advances by exactly one event, integrating any journey
	// improvement into the tables and returning the visitors to enqueue.
	// A visitor that wants to keep running returns itself among them.
	step(s *state) []visitor
}

// state is the per-query mutable search state shared by all visitors.
type state struct {
	ds *dataset.Dataset

	// bestAtStop maps a stop id to the best closed journey known to end
	// there. A nil entry is the empty journey at a search origin.
	bestAtStop map[string]*journey.Journey
	// bestAtTrip maps a trip id to the best open journey that has boarded
	// the trip. Dominated re-boardings are discarded against it.
	bestAtTrip map[string]*journey.Open
}

// record integrates a closed journey arriving at a stop. On the first
// visit it spawns the stop's departure scanner; on every improvement it
// fans out the stop's walking edges.
func (s *state) record(stop *models.Stop, arrival int64, j *journey.Journey, sameSecondBoarding bool) []visitor {
	existing, visited := s.bestAtStop[stop.StopID]
	if visited && !j.Quality().Better(existing.Quality()) {
		return nil
	}
	s.bestAtStop[stop.StopID] = j

	var out []visitor
	if !visited {
		if sv := newStopVisitor(s.ds, stop, arrival, sameSecondBoarding); sv != nil {
			out = append(out, sv)
		}
	}
	if tv := newTransferVisitor(s.ds, stop, arrival, j); tv != nil {
		out = append(out, tv)
	}
	return out
}

// stopVisitor stands at a stop and boards each upcoming departure in turn.
type stopVisitor struct {
	stop    *models.Stop
	cursor  *dataset.DepartureCursor
	current dataset.Departure
}

// newStopVisitor creates a visitor at a stop, positioned on the first
// departure at or after the arrival instant. Returns nil when the stop has
// no boardable departure within the cursor window.
func newStopVisitor(ds *dataset.Dataset, stop *models.Stop, arrival int64, sameSecondBoarding bool) *stopVisitor {
	cursor := ds.Departures(stop.StopID, arrival, sameSecondBoarding)
	current, ok := cursor.Next()
	if !ok {
		return nil
	}
	return &stopVisitor{stop: stop, cursor: cursor, current: current}
}

func (v *stopVisitor) nextEvent() int64 { return v.current.Instant }

func (v *stopVisitor) step(s *state) []visitor {
	stopTime := v.current.StopTime
	boarded := &journey.Open{
		Prefix:     s.bestAtStop[v.stop.StopID],
		Trip:       s.ds.TripByID(stopTime.TripID),
		Board:      stopTime,
		ServiceDay: v.current.ServiceDay,
		Departure:  v.current.Instant,
	}

	var out []visitor
	if existing, boardedBefore := s.bestAtTrip[stopTime.TripID]; boardedBefore {
		if boarded.Quality().Better(existing.Quality()) {
			// A trip visitor is already riding; it reads the table on its
			// next stop, so replacing the entry is enough.
			s.bestAtTrip[stopTime.TripID] = boarded
		}
	} else if tv := newTripVisitor(s.ds, stopTime, v.current.ServiceDay); tv != nil {
		s.bestAtTrip[stopTime.TripID] = boarded
		out = append(out, tv)
	}

	if next, ok := v.cursor.Next(); ok {
		v.current = next
		out = append(out, v)
	}
	return out
}

// tripVisitor rides a trip, proposing to alight at each subsequent stop
// where passengers may leave the vehicle.
type tripVisitor struct {
	trip       *models.Trip
	serviceDay int64
	stopTimes  []*models.StopTime
	// idx points at the next stop time the rider could alight at.
	idx int
}

// newTripVisitor creates a visitor on a trip just boarded at the given
// stop time. Returns nil when no later stop of the trip allows alighting.
func newTripVisitor(ds *dataset.Dataset, boarded *models.StopTime, serviceDay int64) *tripVisitor {
	stopTimes := ds.StopTimesForTrip(boarded.TripID)
	idx := sort.Search(len(stopTimes), func(i int) bool {
		return stopTimes[i].StopSequence > boarded.StopSequence
	})
	v := &tripVisitor{
		trip:       ds.TripByID(boarded.TripID),
		serviceDay: serviceDay,
		stopTimes:  stopTimes,
		idx:        idx - 1,
	}
	if !v.advance() {
		return nil
	}
	return v
}

// advance moves to the next stop time where alighting is allowed.
func (v *tripVisitor) advance() bool {
	for i := v.idx + 1; i < len(v.stopTimes); i++ {
		if v.stopTimes[i].DropOffType != models.PickupDropOffNone {
			v.idx = i
			return true
		}
	}
	return false
}

func (v *tripVisitor) nextEvent() int64 {
	return v.serviceDay + int64(v.stopTimes[v.idx].Arrival)
}

func (v *tripVisitor) step(s *state) []visitor {
	alight := v.stopTimes[v.idx]
	arrival := v.nextEvent()
	open := s.bestAtTrip[v.trip.TripID]
	stop, _ := s.ds.StopByID(alight.StopID)
	boardStop, _ := s.ds.StopByID(open.Board.StopID)
	closed := open.Prefix.Extend(&journey.TripSegment{
		Trip:       v.trip,
		Route:      s.ds.RouteByID(v.trip.RouteID),
		From:       boardStop,
		To:         stop,
		Board:      open.Board,
		Alight:     alight,
		ServiceDay: open.ServiceDay,
		Departure:  open.Departure,
		Arrival:    open.ServiceDay + int64(alight.Arrival),
	})

	out := s.record(stop, arrival, closed, false)
	if v.advance() {
		out = append(out, v)
	}
	return out
}

// transferVisitor walks the transfer edges out of one stop, shortest walk
// first, with the journey frozen at the instant the walking started.
type transferVisitor struct {
	from  *models.Stop
	start int64
	j     *journey.Journey
	edges []*models.Transfer
	idx   int
}

// newTransferVisitor creates a visitor over the stop's outgoing walking
// edges. Returns nil when the stop has none.
func newTransferVisitor(ds *dataset.Dataset, stop *models.Stop, arrival int64, j *journey.Journey) *transferVisitor {
	edges := ds.TransfersFrom(stop.StopID)
	if len(edges) == 0 {
		return nil
	}
	return &transferVisitor{from: stop, start: arrival, j: j, edges: edges}
}

func (v *transferVisitor) nextEvent() int64 {
	return v.start + int64(v.edges[v.idx].MinSeconds)
}

func (v *transferVisitor) step(s *state) []visitor {
	edge := v.edges[v.idx]
	end := v.nextEvent()
	target, _ := s.ds.StopByID(edge.ToStopID)
	walked := v.j.Extend(&journey.TransferSegment{
		Transfer:  edge,
		From:      v.from,
		To:        target,
		Departure: v.start,
		Arrival:   end,
	})

	// Walks do not chain: improving a stop by walking fans out no further
	// walking edges, only the stop's departures.
	var out []visitor
	existing, visited := s.bestAtStop[target.StopID]
	if !visited || walked.Quality().Better(existing.Quality()) {
		s.bestAtStop[target.StopID] = walked
		if !visited {
			if sv := newStopVisitor(s.ds, target, end, true); sv != nil {
				out = append(out, sv)
			}
		}
	}

	v.idx++
	if v.idx < len(v.edges) {
		out = append(out, v)
	}
	return out
}
