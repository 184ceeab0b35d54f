package timetable

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// RunStop is a train run together with the index of one of its stops
type RunStop struct {
	Run       *TrainRun
	StopIndex int
}

func (r RunStop) Stop() *Stop {
	return &r.Run.Stops[r.StopIndex]
}

// Snapshot is an immutable, indexed timetable. It is safe for concurrent reads.
type Snapshot struct {
	version  string
	loadedAt time.Time

	stations     map[string]*Station
	stationCodes []string
	runs         []*TrainRun
	byStation    map[string][]RunStop
}

// NewSnapshot validates the timetable and builds its indexes.
// Any inconsistency is returned as a *DataError.
func NewSnapshot(stations []*Station, runs []*TrainRun) (*Snapshot, error) {
	snapshot := &Snapshot{
		loadedAt:  time.Now(),
		stations:  make(map[string]*Station, len(stations)),
		byStation: map[string][]RunStop{},
	}

	for _, station := range stations {
		if station == nil || station.Code == "" {
			return nil, &DataError{Reason: "station without code"}
		}
		if station.Code != NormaliseCode(station.Code) {
			return nil, &DataError{Station: station.Code, Reason: "station code is not normalised"}
		}
		if _, exists := snapshot.stations[station.Code]; exists {
			return nil, &DataError{Station: station.Code, Reason: "duplicate station code"}
		}
		snapshot.stations[station.Code] = station
		snapshot.stationCodes = append(snapshot.stationCodes, station.Code)
	}
	slices.Sort(snapshot.stationCodes)

	runIDs := map[string]bool{}
	for _, run := range runs {
		if err := snapshot.validateRun(run); err != nil {
			return nil, err
		}
		if runIDs[run.ID] {
			return nil, &DataError{Run: run.ID, Reason: "duplicate run identifier"}
		}
		runIDs[run.ID] = true
		snapshot.runs = append(snapshot.runs, run)
	}
	slices.SortFunc(snapshot.runs, func(a, b *TrainRun) int {
		return strings.Compare(a.ID, b.ID)
	})

	// Runs are sorted so every per-station list comes out in a stable order
	for _, run := range snapshot.runs {
		for index, stop := range run.Stops {
			snapshot.byStation[stop.Station] = append(snapshot.byStation[stop.Station], RunStop{Run: run, StopIndex: index})
		}
	}

	snapshot.version = snapshot.computeVersion()

	return snapshot, nil
}

func (s *Snapshot) validateRun(run *TrainRun) error {
	if run == nil || run.ID == "" {
		return &DataError{Reason: "train run without identifier"}
	}
	if len(run.Stops) < 2 {
		return &DataError{Run: run.ID, Reason: "train run needs at least two stops"}
	}

	last := NoTime
	for index, stop := range run.Stops {
		if _, exists := s.stations[stop.Station]; !exists {
			return &DataError{Run: run.ID, Station: stop.Station, Reason: "unknown station code"}
		}

		for _, value := range []Minutes{stop.Arrival, stop.Departure} {
			if !value.IsSet() {
				continue
			}
			if value < last {
				return &DataError{Run: run.ID, Station: stop.Station, Reason: fmt.Sprintf("stop %d goes back in time", index)}
			}
			last = value
		}
	}

	if !run.Origin().CanBoard() {
		return &DataError{Run: run.ID, Station: run.Origin().Station, Reason: "origin has no departure time"}
	}

	return nil
}

func (s *Snapshot) computeVersion() string {
	hash := sha256.New()
	for _, code := range s.stationCodes {
		station := s.stations[code]
		fmt.Fprintf(hash, "S|%s|%s|%s|%s\n", station.Code, station.Name, station.City, station.State)
	}
	for _, run := range s.runs {
		fmt.Fprintf(hash, "R|%s|%s|%s|%v\n", run.ID, run.Number, run.Name, run.Availability)
		for _, stop := range run.Stops {
			fmt.Fprintf(hash, "%s|%d|%d\n", stop.Station, stop.Arrival, stop.Departure)
		}
	}
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// Version identifies the snapshot contents. Equal timetables give equal versions.
func (s *Snapshot) Version() string {
	return s.version
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

func (s *Snapshot) Station(code string) (*Station, bool) {
	station, exists := s.stations[NormaliseCode(code)]
	return station, exists
}

func (s *Snapshot) StationCount() int {
	return len(s.stationCodes)
}

func (s *Snapshot) Runs() []*TrainRun {
	return s.runs
}

// RunsByStation lists every run calling at the station with the index of that call
func (s *Snapshot) RunsByStation(code string) []RunStop {
	return s.byStation[NormaliseCode(code)]
}

// IsRunActive reports whether the run operates with date as its start date
func (s *Snapshot) IsRunActive(run *TrainRun, date time.Time) bool {
	return run.Availability.MatchDate(date)
}

// ServiceDateAt gives the start date of the run whose event at value happens on
// the calendar day date. Times past midnight belong to a run that started
// value.DayOffset() days earlier.
func ServiceDateAt(value Minutes, date time.Time) time.Time {
	return StartOfDay(date).AddDate(0, 0, -value.DayOffset())
}

// ResolveStation finds a station by exact code first, then by a case
// insensitive match on name or city. Ties go to the lowest code.
func (s *Snapshot) ResolveStation(query string) (*Station, bool) {
	if station, exists := s.Station(query); exists {
		return station, true
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, false
	}
	for _, code := range s.stationCodes {
		if station := s.stations[code]; station.matchesText(query) {
			return station, true
		}
	}
	return nil, false
}

// Stations pages through the stations in code order
func (s *Snapshot) Stations(skip int, limit int) []*Station {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(s.stationCodes) || limit <= 0 {
		return []*Station{}
	}
	end := min(skip+limit, len(s.stationCodes))

	stations := make([]*Station, 0, end-skip)
	for _, code := range s.stationCodes[skip:end] {
		stations = append(stations, s.stations[code])
	}
	return stations
}

// CallingRuns counts the runs calling at a station
func (s *Snapshot) CallingRuns(code string) int {
	return len(s.byStation[NormaliseCode(code)])
}

// BusiestStations returns the n stations with the most calling runs
func (s *Snapshot) BusiestStations(n int) []*Station {
	codes := slices.Clone(s.stationCodes)
	slices.SortStableFunc(codes, func(a, b string) int {
		return len(s.byStation[b]) - len(s.byStation[a])
	})
	if n < len(codes) {
		codes = codes[:n]
	}

	stations := make([]*Station, 0, len(codes))
	for _, code := range codes {
		stations = append(stations, s.stations[code])
	}
	return stations
}

// StartOfDay truncates a timestamp to midnight of its calendar day, in UTC
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
