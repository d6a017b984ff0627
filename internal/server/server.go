package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/journeyfinder/internal/common/logger"
	"github.com/journeyfinder/internal/dataset"
	"github.com/journeyfinder/internal/journey"
	"github.com/journeyfinder/internal/search"
	"github.com/journeyfinder/internal/ui"
)

// Server exposes the journey search and the stop autocompletion as a JSON
// API, as an alternative to the terminal UI.
type Server struct {
	engine *search.Engine
	trie   *ui.StopTrie
	log    logger.Logger
}

func New(ds *dataset.Dataset, engine *search.Engine, log logger.Logger) *Server {
	return &Server{engine: engine, trie: ui.BuildStopTrie(ds), log: log}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/api/stops", s.handleStops)
	r.Get("/api/journeys", s.handleJourneys)
	return r
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("HTTP API listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type stopMatch struct {
	Name    string   `json:"name"`
	StopIDs []string `json:"stop_ids"`
}

// handleStops answers autocompletion queries: up to 50 stop names matching
// the prefix, with the stop ids published under each.
func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "missing prefix parameter")
		return
	}
	matches := s.trie.SearchPrefix(prefix, 50)
	out := make([]stopMatch, 0, len(matches))
	for _, match := range matches {
		out = append(out, stopMatch{Name: match.Name, StopIDs: match.StopIDs})
	}
	writeJSON(w, http.StatusOK, out)
}

type segmentResponse struct {
	Kind      string `json:"kind"` // "trip" or "walk"
	FromStop  string `json:"from_stop"`
	ToStop    string `json:"to_stop"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Route     string `json:"route,omitempty"`
	RouteType string `json:"route_type,omitempty"`
}

type journeyResponse struct {
	QueryID   string            `json:"query_id"`
	Outcome   string            `json:"outcome"`
	Departure string            `json:"departure,omitempty"`
	Arrival   string            `json:"arrival,omitempty"`
	Transfers int               `json:"transfers"`
	Segments  []segmentResponse `json:"segments,omitempty"`
}

// handleJourneys runs one search. The from and to parameters are stop name
// prefixes that must resolve to exactly one stop name each; departure is
// RFC 3339 or any of the terminal UI's written forms.
func (s *Server) handleJourneys(w http.ResponseWriter, r *http.Request) {
	queryID := uuid.NewString()
	query := r.URL.Query()

	origin, ok := s.resolveStop(w, query.Get("from"), "from")
	if !ok {
		return
	}
	destination, ok := s.resolveStop(w, query.Get("to"), "to")
	if !ok {
		return
	}
	departure, err := ui.ParseDateTime(query.Get("departure"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unrecognized departure date and time")
		return
	}

	result, err := s.engine.Search(search.Params{
		OriginStopIDs:      origin.StopIDs,
		DestinationStopIDs: destination.StopIDs,
		Departure:          departure,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("API search finished",
		"query_id", queryID,
		"from", origin.Name,
		"to", destination.Name,
		"outcome", result.Outcome.String(),
	)

	resp := journeyResponse{QueryID: queryID, Outcome: result.Outcome.String()}
	if result.Outcome == search.Found {
		j := result.Journey
		resp.Departure = formatInstant(j.FirstDeparture())
		resp.Arrival = formatInstant(j.Arrival())
		resp.Transfers = j.Transfers()
		for _, segment := range j.Segments() {
			resp.Segments = append(resp.Segments, toSegmentResponse(segment))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveStop maps a name prefix to the single stop name it denotes,
// answering the request itself when the prefix is missing or ambiguous.
func (s *Server) resolveStop(w http.ResponseWriter, prefix, param string) (ui.Match, bool) {
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "missing "+param+" parameter")
		return ui.Match{}, false
	}
	matches := s.trie.SearchPrefix(prefix, 10)
	switch len(matches) {
	case 0:
		writeError(w, http.StatusNotFound, "no stop matches "+param+" prefix")
		return ui.Match{}, false
	case 1:
		return matches[0], true
	default:
		names := make([]string, 0, len(matches))
		for _, match := range matches {
			names = append(names, match.Name)
		}
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":      param + " prefix is ambiguous",
			"candidates": names,
		})
		return ui.Match{}, false
	}
}

func toSegmentResponse(segment journey.Segment) segmentResponse {
	out := segmentResponse{
		FromStop:  segment.Origin().StopName,
		ToStop:    segment.Target().StopName,
		Departure: formatInstant(segment.DepartsAt()),
		Arrival:   formatInstant(segment.ArrivesAt()),
	}
	if trip, ok := segment.(*journey.TripSegment); ok {
		out.Kind = "trip"
		out.Route = trip.Route.ShortName()
		out.RouteType = trip.Route.RouteType.String()
	} else {
		out.Kind = "walk"
	}
	return out
}

func formatInstant(instant int64) string {
	return time.Unix(instant, 0).UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
