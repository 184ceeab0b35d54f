package routesearch

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/railconnect/railconnect/pkg/routegraph"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/slices"
)

// SnapshotSource provides the timetable a search runs against. *timetable.Store satisfies it.
type SnapshotSource interface {
	Snapshot() *timetable.Snapshot
}

type Request struct {
	Origin      string
	Destination string
	Date        time.Time
	Criterion   Criterion
	Switches    []int
}

type Result struct {
	Snapshot    *timetable.Snapshot
	Query       *Query
	Itineraries []Itinerary
}

type Engine struct {
	source  SnapshotSource
	graphs  *routegraph.Cache
	options Options
}

func NewEngine(source SnapshotSource, options Options) *Engine {
	if options.FanOut < 1 {
		options.FanOut = 1
	}
	if options.Workers < 1 {
		options.Workers = 1
	}
	if len(options.DefaultSwitches) == 0 {
		options.DefaultSwitches = []int{0, 1}
	}

	return &Engine{
		source:  source,
		graphs:  routegraph.NewCache(options.GraphCacheSize),
		options: options,
	}
}

func (e *Engine) Options() Options {
	return e.options
}

// Query is a request resolved against a snapshot
type Query struct {
	Origin      *timetable.Station
	Destination *timetable.Station
	Date        time.Time
	Criterion   Criterion
	Switches    []int
}

// Validate resolves the request against the snapshot without searching
func (e *Engine) Validate(snapshot *timetable.Snapshot, request Request) (*Query, error) {
	origin := strings.TrimSpace(request.Origin)
	destination := strings.TrimSpace(request.Destination)

	if origin == "" || destination == "" {
		return nil, invalidRequest("source and destination are required")
	}
	if strings.EqualFold(origin, destination) {
		return nil, invalidRequest("source and destination must be different")
	}
	if request.Date.IsZero() {
		return nil, invalidRequest("travel date is required")
	}

	criterion := request.Criterion
	switch criterion {
	case "":
		criterion = Fastest
	case Fastest, FewestSwitches:
	case Cheapest:
		return nil, invalidRequest("cheapest ranking is not supported without fare data")
	default:
		return nil, invalidRequest("unsupported criteria %q", criterion)
	}

	originStation, found := snapshot.ResolveStation(origin)
	if !found {
		return nil, invalidRequest("unknown station %q", origin)
	}
	destinationStation, found := snapshot.ResolveStation(destination)
	if !found {
		return nil, invalidRequest("unknown station %q", destination)
	}
	if originStation.Code == destinationStation.Code {
		return nil, invalidRequest("source and destination resolve to the same station %s", originStation.Code)
	}

	switches := request.Switches
	if len(switches) == 0 {
		switches = e.options.DefaultSwitches
	}
	for _, n := range switches {
		if n < 0 || n > MaxSwitches {
			return nil, invalidRequest("switches must be between 0 and %d", MaxSwitches)
		}
	}
	switches = slices.Clone(switches)
	slices.Sort(switches)
	switches = slices.Compact(switches)

	return &Query{
		Origin:      originStation,
		Destination: destinationStation,
		Date:        timetable.StartOfDay(request.Date),
		Criterion:   criterion,
		Switches:    switches,
	}, nil
}

// Search finds itineraries with the requested switch counts that leave the
// origin on the travel date, ranked by criterion
func (e *Engine) Search(ctx context.Context, request Request) (*Result, error) {
	snapshot := e.source.Snapshot()

	query, err := e.Validate(snapshot, request)
	if err != nil {
		return nil, err
	}

	return e.Run(ctx, snapshot, query)
}

// Run searches a query already resolved by Validate against the same snapshot
func (e *Engine) Run(ctx context.Context, snapshot *timetable.Snapshot, query *Query) (*Result, error) {
	origin, destination := query.Origin, query.Destination

	if e.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.options.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	travelDate := query.Date

	s := &search{
		ctx:         ctx,
		options:     e.options,
		builder:     e.graphs.Builder(snapshot, travelDate),
		origin:      origin.Code,
		destination: destination.Code,
		dayStart:    travelDate,
		switches:    query.Switches,
	}

	itineraries, err := s.run()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().
				Str("origin", origin.Code).
				Str("destination", destination.Code).
				Str("latency", time.Since(startTime).String()).
				Msg("Route search timed out")
			return nil, ErrSearchTimeout
		}
		if errors.Is(err, context.Canceled) {
			log.Debug().
				Str("origin", origin.Code).
				Str("destination", destination.Code).
				Str("latency", time.Since(startTime).String()).
				Msg("Route search canceled")
			return nil, ErrSearchCanceled
		}
		return nil, err
	}

	rank(query.Criterion, itineraries)
	itineraries = dedupe(itineraries, e.options.CollapseTrainCombinations)
	if e.options.Limit > 0 && len(itineraries) > e.options.Limit {
		itineraries = itineraries[:e.options.Limit]
	}

	log.Debug().
		Str("origin", origin.Code).
		Str("destination", destination.Code).
		Str("date", travelDate.Format(timetable.YearMonthDayFormat)).
		Str("criterion", string(query.Criterion)).
		Int("results", len(itineraries)).
		Str("latency", time.Since(startTime).String()).
		Msg("Route search complete")

	return &Result{
		Snapshot:    snapshot,
		Query:       query,
		Itineraries: itineraries,
	}, nil
}

// search is the state of one request. Nothing in it is shared with other searches
// apart from the builder, which is safe for concurrent use.
type search struct {
	ctx     context.Context
	options Options
	builder *routegraph.Builder

	origin      string
	destination string
	dayStart    time.Time
	switches    []int

	directTrains   map[string]bool
	fastestDirect  time.Duration
	feeders        map[string]bool
	secondFeeders  map[string]bool
	layoverHorizon time.Duration
}

func (s *search) wants(switches int) bool {
	return slices.Contains(s.switches, switches)
}

func (s *search) run() ([]Itinerary, error) {
	var itineraries []Itinerary

	// Directs are always gathered since connecting results are measured against them
	directs := s.directs()
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if s.wants(0) {
		itineraries = append(itineraries, directs...)
	}

	if !s.wants(1) && !s.wants(2) {
		return itineraries, nil
	}

	s.feeders = s.builder.FeederStations(s.destination)
	if s.wants(2) {
		s.secondFeeders = s.builder.SecondFeederStations(s.destination)
	}
	// Times are whole minutes so this window includes a layover of exactly MaxLayover
	s.layoverHorizon = s.options.MaxLayover - s.options.MinTransfer + time.Minute

	workers := pool.NewWithResults[[]Itinerary]().
		WithContext(s.ctx).
		WithCancelOnError().
		WithMaxGoroutines(s.options.Workers)

	for boarding := range s.firstBoardings() {
		workers.Go(func(ctx context.Context) ([]Itinerary, error) {
			return s.expand(ctx, boarding)
		})
	}

	connecting, err := workers.Wait()
	if err != nil {
		return nil, err
	}
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	for _, batch := range connecting {
		itineraries = append(itineraries, batch...)
	}

	return itineraries, nil
}

func (s *search) directs() []Itinerary {
	s.directTrains = map[string]bool{}

	var directs []Itinerary
	for boarding := range s.builder.BoardingsFrom(s.origin, s.dayStart, 24*time.Hour) {
		segment, found := boarding.SegmentTo(s.destination)
		if !found {
			continue
		}
		directs = append(directs, Itinerary{Segments: []routegraph.Segment{segment}})
		s.directTrains[segment.Run.Number] = true

		if s.fastestDirect == 0 || segment.Duration() < s.fastestDirect {
			s.fastestDirect = segment.Duration()
		}
	}
	return directs
}

func (s *search) usable(run *timetable.TrainRun, used []routegraph.Segment) bool {
	if s.options.ExcludeDirectTrains && s.directTrains[run.Number] {
		return false
	}
	for _, segment := range used {
		if segment.Run.ID == run.ID {
			return false
		}
	}
	return true
}

// withinDetour reports whether a partial itinerary of elapsed length can still
// end up inside the detour limit for some wanted switch count >= switches
func (s *search) withinDetour(switches int, elapsed time.Duration) bool {
	if s.fastestDirect == 0 {
		return true
	}
	for n := switches; n <= MaxSwitches; n++ {
		if !s.wants(n) {
			continue
		}
		ratio := s.options.ratioFor(n)
		if ratio <= 0 || float64(elapsed) <= ratio*float64(s.fastestDirect) {
			return true
		}
	}
	return false
}

// firstBoardings yields the earliest FanOut trains leaving the origin on the
// travel date that call somewhere a connection can continue from
func (s *search) firstBoardings() iter.Seq[routegraph.Boarding] {
	return func(yield func(routegraph.Boarding) bool) {
		count := 0
		for boarding := range s.builder.BoardingsFrom(s.origin, s.dayStart, 24*time.Hour) {
			if count >= s.options.FanOut {
				return
			}
			if !s.usable(boarding.Run, nil) || !s.leadsOn(boarding) {
				continue
			}
			count++
			if !yield(boarding) {
				return
			}
		}
	}
}

// leadsOn reports whether the boarding calls at a station from which the
// destination is one or two further trains away
func (s *search) leadsOn(boarding routegraph.Boarding) bool {
	for segment := range boarding.Segments() {
		transfer := segment.To()
		if transfer == s.origin || transfer == s.destination {
			continue
		}
		if s.wants(1) && s.feeders[transfer] {
			return true
		}
		if s.wants(2) && s.secondFeeders[transfer] {
			return true
		}
	}
	return false
}

func (s *search) expand(ctx context.Context, first routegraph.Boarding) ([]Itinerary, error) {
	var itineraries []Itinerary

	for leg1 := range first.Segments() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		transfer := leg1.To()
		if transfer == s.origin || transfer == s.destination {
			continue
		}
		if !s.withinDetour(1, leg1.Arrival.Sub(leg1.Departure)) {
			// Later stops of the same train only arrive later
			break
		}

		if s.wants(1) && s.feeders[transfer] {
			for _, leg2 := range s.finalLegs(transfer, leg1.Arrival, []routegraph.Segment{leg1}) {
				itineraries = append(itineraries, Itinerary{Segments: []routegraph.Segment{leg1, leg2}})
			}
		}

		if s.wants(2) {
			found, err := s.expandSecond(ctx, leg1)
			if err != nil {
				return nil, err
			}
			itineraries = append(itineraries, found...)
		}
	}

	return s.keepWithinRatio(itineraries), nil
}

func (s *search) expandSecond(ctx context.Context, leg1 routegraph.Segment) ([]Itinerary, error) {
	var itineraries []Itinerary
	visited := []string{s.origin, leg1.To(), s.destination}

	count := 0
	for boarding := range s.builder.BoardingsFrom(leg1.To(), leg1.Arrival.Add(s.options.MinTransfer), s.layoverHorizon) {
		if count >= s.options.FanOut {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.usable(boarding.Run, []routegraph.Segment{leg1}) {
			continue
		}

		explored := false
		for leg2 := range boarding.Segments() {
			transfer := leg2.To()
			if !s.feeders[transfer] || slices.Contains(visited, transfer) {
				continue
			}
			if !s.withinDetour(2, leg2.Arrival.Sub(leg1.Departure)) {
				break
			}
			explored = true

			for _, leg3 := range s.finalLegs(transfer, leg2.Arrival, []routegraph.Segment{leg1, leg2}) {
				itineraries = append(itineraries, Itinerary{Segments: []routegraph.Segment{leg1, leg2, leg3}})
			}
		}
		if explored {
			count++
		}
	}

	return itineraries, nil
}

// finalLegs returns the earliest FanOut segments from station to the
// destination that respect the transfer window after arrival
func (s *search) finalLegs(station string, arrival time.Time, used []routegraph.Segment) []routegraph.Segment {
	var legs []routegraph.Segment

	for boarding := range s.builder.BoardingsFrom(station, arrival.Add(s.options.MinTransfer), s.layoverHorizon) {
		if len(legs) >= s.options.FanOut {
			break
		}
		if !s.usable(boarding.Run, used) {
			continue
		}
		if segment, found := boarding.SegmentTo(s.destination); found {
			legs = append(legs, segment)
		}
	}

	return legs
}

func (s *search) keepWithinRatio(itineraries []Itinerary) []Itinerary {
	if s.fastestDirect == 0 {
		return itineraries
	}

	kept := itineraries[:0]
	for _, itinerary := range itineraries {
		ratio := s.options.ratioFor(itinerary.Switches())
		if ratio > 0 && float64(itinerary.Duration()) > ratio*float64(s.fastestDirect) {
			continue
		}
		kept = append(kept, itinerary)
	}
	return kept
}
