// Package timetabletest builds small timetables for tests
package timetabletest

import (
	"strconv"
	"strings"
	"testing"

	"github.com/railconnect/railconnect/pkg/timetable"
)

type Builder struct {
	t        testing.TB
	stations []*timetable.Station
	known    map[string]bool
	runs     []*timetable.TrainRun
}

func New(t testing.TB) *Builder {
	return &Builder{t: t, known: map[string]bool{}}
}

// Station declares a station. Stations used by runs but never declared are
// added with their code as name.
func (b *Builder) Station(code string, name string, city string) *Builder {
	code = timetable.NormaliseCode(code)
	if !b.known[code] {
		b.known[code] = true
		b.stations = append(b.stations, &timetable.Station{Code: code, Name: name, City: city})
	}
	return b
}

// Run adds a daily run identified by its number
func (b *Builder) Run(number string, name string, calls ...string) *Builder {
	return b.RunOn(number, name, timetable.Daily(), calls...)
}

// RunOn adds a run with a calendar. Each call is "CODE arrival departure",
// times as "HH:MM" with an optional "+N" day offset and "-" for none.
func (b *Builder) RunOn(number string, name string, availability *timetable.Availability, calls ...string) *Builder {
	b.t.Helper()

	run := &timetable.TrainRun{
		ID:           number,
		Number:       number,
		Name:         name,
		Availability: availability,
	}
	for _, call := range calls {
		fields := strings.Fields(call)
		if len(fields) != 3 {
			b.t.Fatalf("call %q needs station, arrival and departure", call)
		}
		b.Station(fields[0], fields[0], "")
		run.Stops = append(run.Stops, timetable.Stop{
			Station:   timetable.NormaliseCode(fields[0]),
			Arrival:   b.parse(fields[1]),
			Departure: b.parse(fields[2]),
		})
	}
	b.runs = append(b.runs, run)
	return b
}

func (b *Builder) parse(value string) timetable.Minutes {
	b.t.Helper()

	if value == "-" {
		return timetable.NoTime
	}
	offset := 0
	if clock, day, found := strings.Cut(value, "+"); found {
		n, err := strconv.Atoi(day)
		if err != nil {
			b.t.Fatalf("bad day offset in %q", value)
		}
		value, offset = clock, n
	}
	minutes, err := timetable.ParseClock(value, offset)
	if err != nil {
		b.t.Fatalf("bad time %q: %v", value, err)
	}
	return minutes
}

func (b *Builder) Snapshot() *timetable.Snapshot {
	b.t.Helper()

	snapshot, err := timetable.NewSnapshot(b.stations, b.runs)
	if err != nil {
		b.t.Fatalf("building snapshot: %v", err)
	}
	return snapshot
}

func (b *Builder) Store() *timetable.Store {
	b.t.Helper()
	return timetable.NewStore(b.Snapshot())
}
