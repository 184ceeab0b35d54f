package routegraph

import (
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/railconnect/railconnect/pkg/timetable"
	"golang.org/x/exp/slices"
)

type departureKey struct {
	station string
	day     int64
}

// Builder expands a timetable snapshot into dated segments on demand.
// Departure lists are built once per station and calendar day and shared by
// every search using the builder.
type Builder struct {
	snapshot   *timetable.Snapshot
	departures    sync.Map
	feeders       sync.Map
	secondFeeders sync.Map
}

func NewBuilder(snapshot *timetable.Snapshot) *Builder {
	return &Builder{snapshot: snapshot}
}

func (b *Builder) Snapshot() *timetable.Snapshot {
	return b.snapshot
}

// DeparturesOn returns every boarding at station whose departure falls on the
// calendar day of date, ordered by departure time
func (b *Builder) DeparturesOn(station string, date time.Time) []Boarding {
	day := timetable.StartOfDay(date)
	key := departureKey{station: station, day: day.Unix()}

	if cached, exists := b.departures.Load(key); exists {
		return cached.([]Boarding)
	}

	var boardings []Boarding
	for _, runStop := range b.snapshot.RunsByStation(station) {
		stop := runStop.Stop()
		if !stop.CanBoard() || runStop.StopIndex == len(runStop.Run.Stops)-1 {
			continue
		}

		serviceDate := timetable.ServiceDateAt(stop.Departure, day)
		if !b.snapshot.IsRunActive(runStop.Run, serviceDate) {
			continue
		}

		boardings = append(boardings, Boarding{
			Run:         runStop.Run,
			StopIndex:   runStop.StopIndex,
			ServiceDate: serviceDate,
			Departure:   stop.Departure.At(serviceDate),
		})
	}
	slices.SortFunc(boardings, compareBoardings)

	actual, _ := b.departures.LoadOrStore(key, boardings)
	return actual.([]Boarding)
}

func compareBoardings(a, b Boarding) int {
	if c := a.Departure.Compare(b.Departure); c != 0 {
		return c
	}
	if c := strings.Compare(a.Run.Number, b.Run.Number); c != 0 {
		return c
	}
	if c := strings.Compare(a.Run.ID, b.Run.ID); c != 0 {
		return c
	}
	return a.StopIndex - b.StopIndex
}

// BoardingsFrom yields boardings at station departing in [notBefore, notBefore+horizon)
// in departure order. The sequence is finite and can be ranged over again.
func (b *Builder) BoardingsFrom(station string, notBefore time.Time, horizon time.Duration) iter.Seq[Boarding] {
	station = timetable.NormaliseCode(station)
	notAfter := notBefore.Add(horizon)

	return func(yield func(Boarding) bool) {
		for day := timetable.StartOfDay(notBefore); day.Before(notAfter); day = day.AddDate(0, 0, 1) {
			for _, boarding := range b.DeparturesOn(station, day) {
				if boarding.Departure.Before(notBefore) {
					continue
				}
				if !boarding.Departure.Before(notAfter) {
					return
				}
				if !yield(boarding) {
					return
				}
			}
		}
	}
}

// SegmentsFrom yields every segment leaving station in the window, ordered by
// departure time then run then alighting stop
func (b *Builder) SegmentsFrom(station string, notBefore time.Time, horizon time.Duration) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for boarding := range b.BoardingsFrom(station, notBefore, horizon) {
			for segment := range boarding.Segments() {
				if !yield(segment) {
					return
				}
			}
		}
	}
}

// FeederStations lists the stations from which some run can be boarded and
// later left at destination, regardless of calendar
func (b *Builder) FeederStations(destination string) map[string]bool {
	destination = timetable.NormaliseCode(destination)
	if cached, exists := b.feeders.Load(destination); exists {
		return cached.(map[string]bool)
	}

	feeders := map[string]bool{}
	b.addBoardersOf(destination, feeders)

	actual, _ := b.feeders.LoadOrStore(destination, feeders)
	return actual.(map[string]bool)
}

// SecondFeederStations lists the stations from which some run reaches a
// feeder station of destination, so the destination is two changes away
func (b *Builder) SecondFeederStations(destination string) map[string]bool {
	destination = timetable.NormaliseCode(destination)
	if cached, exists := b.secondFeeders.Load(destination); exists {
		return cached.(map[string]bool)
	}

	second := map[string]bool{}
	for feeder := range b.FeederStations(destination) {
		b.addBoardersOf(feeder, second)
	}
	delete(second, destination)

	actual, _ := b.secondFeeders.LoadOrStore(destination, second)
	return actual.(map[string]bool)
}

// addBoardersOf marks every station where a run calling later at station can be boarded
func (b *Builder) addBoardersOf(station string, into map[string]bool) {
	for _, runStop := range b.snapshot.RunsByStation(station) {
		if !runStop.Stop().CanAlight() {
			continue
		}
		for i := 0; i < runStop.StopIndex; i++ {
			if stop := &runStop.Run.Stops[i]; stop.CanBoard() && stop.Station != station {
				into[stop.Station] = true
			}
		}
	}
}
