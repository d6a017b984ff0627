package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/journeyfinder/internal/common/logger"
	"github.com/journeyfinder/internal/dataset"
	"github.com/journeyfinder/internal/journey"
	"github.com/journeyfinder/internal/search"
	"github.com/journeyfinder/pkg/gtfs/models"
)

// maxSuggestions is how many autocompletion candidates one prompt offers.
const maxSuggestions = 9

// UI is the interactive terminal front end: it resolves stop-name prefixes
// through the trie, collects a departure instant and prints the journey the
// engine finds.
type UI struct {
	engine  *search.Engine
	trie    *StopTrie
	profile bool
	log     logger.Logger

	in  *bufio.Scanner
	out io.Writer
}

// New builds a UI over the dataset and engine. The trie holds every named
// stop or platform in the dataset.
func New(ds *dataset.Dataset, engine *search.Engine, profile bool, log logger.Logger) *UI {
	return &UI{
		engine:  engine,
		trie:    BuildStopTrie(ds),
		profile: profile,
		log:     log,
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
}

// Run starts the prompt loop and returns when the user quits or stdin
// closes.
func (u *UI) Run() error {
	fmt.Fprintln(u.out)
	fmt.Fprintln(u.out, "journeyfinder")
	fmt.Fprintln(u.out, "-------------")
	for {
		fmt.Fprintln(u.out)
		params, ok := u.requestParams()
		if !ok {
			return nil
		}
		fmt.Fprintln(u.out, "Searching...")
		u.log.Info("Running search",
			"origins", len(params.OriginStopIDs),
			"destinations", len(params.DestinationStopIDs),
			"departure", params.Departure.UTC().Format(time.RFC3339),
		)
		result, err := u.runSearch(params)
		if err != nil {
			fmt.Fprintf(u.out, "Search failed: %v\n", err)
			continue
		}
		fmt.Fprintln(u.out)
		u.printResult(result)
		fmt.Fprintln(u.out)
		fmt.Fprintln(u.out, "[0] to quit, [Enter] or any other key to search again")
		line, ok := u.readLine()
		if !ok || line == "0" {
			return nil
		}
	}
}

func (u *UI) runSearch(params search.Params) (search.Result, error) {
	if !u.profile {
		return u.engine.Search(params)
	}
	f, err := os.Create("profile.prof")
	if err != nil {
		return search.Result{}, fmt.Errorf("creating profile output: %w", err)
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return search.Result{}, fmt.Errorf("starting profiler: %w", err)
	}
	defer pprof.StopCPUProfile()
	return u.engine.Search(params)
}

// requestParams collects origin, destination and departure, echoing the
// interpretation back for confirmation. Returns ok=false when input ends.
func (u *UI) requestParams() (search.Params, bool) {
	for {
		originName, originIDs, ok := u.askForStop("Origin stop: ")
		if !ok {
			return search.Params{}, false
		}
		destinationName, destinationIDs, ok := u.askForStop("Destination stop: ")
		if !ok {
			return search.Params{}, false
		}
		departure, ok := u.askForDateTime("Departure date and time (e.g. '14. 3. 2025 12:34'): ")
		if !ok {
			return search.Params{}, false
		}
		fmt.Fprintln(u.out, "Search for:")
		fmt.Fprintf(u.out, "\t%s -> %s\n", originName, destinationName)
		fmt.Fprintf(u.out, "\tDeparture: %s\n", FormatDateTime(departure))
		fmt.Fprintln(u.out, "[Enter] to confirm, [0] to start over")
		line, ok := u.readLine()
		if !ok {
			return search.Params{}, false
		}
		switch line {
		case "":
			return search.Params{
				OriginStopIDs:      originIDs,
				DestinationStopIDs: destinationIDs,
				Departure:          departure,
			}, true
		case "0":
			continue
		default:
			fmt.Fprintln(u.out, "Unknown command, starting over.")
		}
	}
}

// askForStop prompts for a name prefix until it resolves to a single stop
// name, offering a numbered pick list when several names match.
func (u *UI) askForStop(prompt string) (string, []string, bool) {
	for {
		fmt.Fprint(u.out, prompt)
		prefix, ok := u.readLine()
		if !ok {
			return "", nil, false
		}
		matches := u.trie.SearchPrefix(prefix, maxSuggestions)
		switch {
		case len(matches) == 0:
			fmt.Fprintln(u.out, "No stop found, try again.")

		case len(matches) == 1:
			match := matches[0]
			fmt.Fprintf(u.out, "Found stop: %s\n", match.Name)
			fmt.Fprintln(u.out, "[Enter] to confirm, [0] to search again")
			line, ok := u.readLine()
			if !ok {
				return "", nil, false
			}
			if line == "" {
				return match.Name, match.StopIDs, true
			}
			if line != "0" {
				fmt.Fprintln(u.out, "Unknown command, try again.")
			}

		default:
			fmt.Fprintln(u.out, "Pick one:")
			for i, match := range matches {
				fmt.Fprintf(u.out, "[%d] %s\n", i+1, match.Name)
			}
			fmt.Fprintln(u.out, "[0] to search again")
			line, ok := u.readLine()
			if !ok {
				return "", nil, false
			}
			if line == "0" {
				continue
			}
			if choice, err := strconv.Atoi(line); err == nil && choice >= 1 && choice <= len(matches) {
				match := matches[choice-1]
				return match.Name, match.StopIDs, true
			}
			fmt.Fprintln(u.out, "Unknown command, try again.")
		}
	}
}

func (u *UI) askForDateTime(prompt string) (time.Time, bool) {
	for {
		fmt.Fprint(u.out, prompt)
		line, ok := u.readLine()
		if !ok {
			return time.Time{}, false
		}
		t, err := ParseDateTime(line)
		if err == nil {
			return t, true
		}
		fmt.Fprintln(u.out, "Unrecognized format, try again.")
	}
}

// printResult renders the journey: a summary line, then for each vehicle
// leg a route line with departure and arrival lines, and one line for each
// walk between different stops.
func (u *UI) printResult(result search.Result) {
	switch result.Outcome {
	case search.OriginEqualsDestination:
		fmt.Fprintln(u.out, "Origin and destination are the same stop.")
		return
	case search.NotFoundWithinHorizon:
		fmt.Fprintln(u.out, "No journey found between these stops.")
		return
	}

	j := result.Journey
	total := time.Duration(j.Arrival()-j.FirstDeparture()) * time.Second
	transfers := "no transfers"
	if n := j.Transfers(); n == 1 {
		transfers = "1 transfer"
	} else if n > 1 {
		transfers = fmt.Sprintf("%d transfers", n)
	}
	fmt.Fprintf(u.out, "Journey: %s, total %s\n", transfers, FormatDuration(total))

	for _, segment := range j.Segments() {
		switch seg := segment.(type) {
		case *journey.TransferSegment:
			if seg.Transfer.Type == models.TransferSameStop {
				continue
			}
			u.printWalk(seg)
		case *journey.TripSegment:
			routeType := seg.Route.RouteType.String()
			fmt.Fprintf(u.out, "\t%s %s\n", capitalize(routeType), tripName(seg))
			fmt.Fprintf(u.out, "\t\t%s %s\n", FormatDateTime(time.Unix(seg.Departure, 0)), seg.From.StopName)
			fmt.Fprintf(u.out, "\t\t%s %s\n", FormatDateTime(time.Unix(seg.Arrival, 0)), seg.To.StopName)
		}
	}
}

func (u *UI) printWalk(seg *journey.TransferSegment) {
	switch seg.Transfer.Type {
	case models.TransferGuaranteed:
		fmt.Fprintln(u.out, "\tWalk: guaranteed transfer")
	case models.TransferTimed:
		minutes, seconds := seg.Transfer.MinSeconds/60, seg.Transfer.MinSeconds%60
		switch {
		case minutes == 0 && seconds == 0:
			fmt.Fprintln(u.out, "\tWalk")
		case minutes == 0:
			fmt.Fprintf(u.out, "\tWalk: about %d s\n", seconds)
		case seconds == 0:
			fmt.Fprintf(u.out, "\tWalk: about %d min\n", minutes)
		default:
			fmt.Fprintf(u.out, "\tWalk: about %d min %d s\n", minutes, seconds)
		}
	default:
		fmt.Fprintln(u.out, "\tWalk")
	}
}

// tripName names a leg by the trip's own short name when it has one, with
// the route name in parentheses, or just by the route.
func tripName(seg *journey.TripSegment) string {
	if seg.Trip.TripShortName != "" {
		return fmt.Sprintf("%s (%s)", seg.Trip.TripShortName, seg.Route.ShortName())
	}
	return seg.Route.ShortName()
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func (u *UI) readLine() (string, bool) {
	if !u.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(u.in.Text()), true
}
