package search

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/journeyfinder/internal/common/logger"
	"github.com/journeyfinder/internal/dataset"
	"github.com/journeyfinder/internal/journey"
)

// Params are the user-settable inputs of one search. A journey may start
// at any of the origin stops and end at any of the destination stops;
// several platforms commonly share one public stop name.
type Params struct {
	OriginStopIDs      []string
	DestinationStopIDs []string
	// Departure is the instant at or after which the journey may begin.
	Departure time.Time
}

// Outcome classifies a search result. All three are results, not errors.
type Outcome int

const (
	// Found means the best journey under the quality order was located.
	Found Outcome = iota
	// NotFoundWithinHorizon means no journey reaches a destination before
	// the search horizon runs out.
	NotFoundWithinHorizon
	// OriginEqualsDestination means the query needs no journey at all.
	OriginEqualsDestination
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFoundWithinHorizon:
		return "not_found_within_horizon"
	case OriginEqualsDestination:
		return "origin_equals_destination"
	default:
		return "unknown"
	}
}

// Result is what a search produces.
type Result struct {
	Outcome Outcome
	// Journey is set when Outcome is Found.
	Journey *journey.Journey
}

// Engine runs journey searches against one immutable dataset. Engines are
// stateless between queries; all search state lives on the stack of Search.
type Engine struct {
	ds      *dataset.Dataset
	horizon time.Duration
	log     logger.Logger
}

func NewEngine(ds *dataset.Dataset, horizon time.Duration, log logger.Logger) *Engine {
	return &Engine{ds: ds, horizon: horizon, log: log}
}

// Search finds the best journey under the quality order: earliest arrival,
// then latest departure from the origin, then fewest transfers. An error
// is returned only for unknown stop ids; an exhausted search is a Result.
func (e *Engine) Search(params Params) (Result, error) {
	// A destination that is also an origin needs no journey and no data.
	for _, originID := range params.OriginStopIDs {
		for _, destinationID := range params.DestinationStopIDs {
			if originID == destinationID {
				return Result{Outcome: OriginEqualsDestination}, nil
			}
		}
	}

	for _, id := range append(append([]string{}, params.OriginStopIDs...), params.DestinationStopIDs...) {
		if _, err := e.ds.StopByID(id); err != nil {
			return Result{}, fmt.Errorf("invalid search params: %w", err)
		}
	}

	departure := params.Departure.Unix()
	limit := departure + int64(e.horizon/time.Second)
	s := &state{
		ds:         e.ds,
		bestAtStop: make(map[string]*journey.Journey),
		bestAtTrip: make(map[string]*journey.Open),
	}

	start := time.Now()
	queue := &frontier{}
	for _, originID := range params.OriginStopIDs {
		origin, _ := e.ds.StopByID(originID)
		s.bestAtStop[originID] = nil // the empty journey
		if sv := newStopVisitor(e.ds, origin, departure, true); sv != nil {
			heap.Push(queue, sv)
		}
		if tv := newTransferVisitor(e.ds, origin, departure, nil); tv != nil {
			heap.Push(queue, tv)
		}
	}

	steps := 0
	previous := departure
	for queue.Len() > 0 {
		v := heap.Pop(queue).(visitor)
		if t := v.nextEvent(); t > previous {
			// Time advanced: nothing pending can arrive before t anymore,
			// so a recorded destination journey is final.
			previous = t
			if best, ok := e.bestDestination(s, params.DestinationStopIDs); ok {
				e.logOutcome(params, Found, best, steps, start)
				return Result{Outcome: Found, Journey: best}, nil
			}
			if t > limit {
				break
			}
		}
		steps++
		for _, next := range v.step(s) {
			heap.Push(queue, next)
		}
	}

	// An empty queue leaves the last time window unchecked; with no
	// visitors left, any recorded destination journey is final.
	if best, ok := e.bestDestination(s, params.DestinationStopIDs); ok {
		e.logOutcome(params, Found, best, steps, start)
		return Result{Outcome: Found, Journey: best}, nil
	}

	e.logOutcome(params, NotFoundWithinHorizon, nil, steps, start)
	return Result{Outcome: NotFoundWithinHorizon}, nil
}

// bestDestination picks the best recorded journey over all destination
// stops, or reports that none has been reached yet.
func (e *Engine) bestDestination(s *state, destinationIDs []string) (*journey.Journey, bool) {
	var best *journey.Journey
	found := false
	for _, id := range destinationIDs {
		j, ok := s.bestAtStop[id]
		if !ok {
			continue
		}
		if !found || j.Quality().Better(best.Quality()) {
			best = j
			found = true
		}
	}
	return best, found
}

func (e *Engine) logOutcome(params Params, outcome Outcome, j *journey.Journey, steps int, start time.Time) {
	fields := []interface{}{
		"outcome", outcome.String(),
		"origins", len(params.OriginStopIDs),
		"destinations", len(params.DestinationStopIDs),
		"steps", steps,
		"duration", time.Since(start).String(),
	}
	if j != nil {
		fields = append(fields,
			"departure", time.Unix(j.FirstDeparture(), 0).UTC().Format(time.RFC3339),
			"arrival", time.Unix(j.Arrival(), 0).UTC().Format(time.RFC3339),
			"transfers", j.Transfers(),
		)
	}
	e.log.Debug("Search finished", fields...)
}
