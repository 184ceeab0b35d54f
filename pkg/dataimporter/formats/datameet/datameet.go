// Package datameet reads the Indian Railways timetable published by the
// datameet/railways project: stations.json, trains.json and schedules.json.
package datameet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

const (
	StationsFile  = "stations.json"
	TrainsFile    = "trains.json"
	SchedulesFile = "schedules.json"
)

// looseString accepts a JSON string, number or null, as the dataset mixes them
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*s = looseString(strings.TrimSpace(value))
		return nil
	}
	*s = looseString(data)
	return nil
}

func (s looseString) Int(fallback int) int {
	if n, err := strconv.Atoi(string(s)); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(string(s), 64); err == nil {
		return int(f)
	}
	return fallback
}

func (s looseString) Float() float64 {
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0
	}
	return f
}

type StationProperties struct {
	Code    looseString `json:"code"`
	Name    looseString `json:"name"`
	State   looseString `json:"state"`
	Address looseString `json:"address"`
}

type TrainProperties struct {
	Number looseString `json:"number"`
	Name   looseString `json:"name"`
}

type feature[T any] struct {
	Properties T `json:"properties"`
}

type featureCollection[T any] struct {
	Features []feature[T] `json:"features"`
}

type ScheduleEntry struct {
	ID          looseString `json:"id"`
	TrainNumber looseString `json:"train_number"`
	StationCode looseString `json:"station_code"`
	Arrival     looseString `json:"arrival"`
	Departure   looseString `json:"departure"`
	Day         looseString `json:"day"`
	Distance    looseString `json:"distance"`
}

type Dataset struct {
	Stations  []StationProperties
	Trains    []TrainProperties
	Schedules []ScheduleEntry
}

// ParseDirectory reads the three dataset files from fsys
func ParseDirectory(fsys fs.FS) (*Dataset, error) {
	var stations featureCollection[StationProperties]
	var trains featureCollection[TrainProperties]
	dataset := &Dataset{}

	if err := readJSON(fsys, StationsFile, &stations); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, TrainsFile, &trains); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, SchedulesFile, &dataset.Schedules); err != nil {
		return nil, err
	}

	for _, feature := range stations.Features {
		dataset.Stations = append(dataset.Stations, feature.Properties)
	}
	for _, feature := range trains.Features {
		dataset.Trains = append(dataset.Trains, feature.Properties)
	}

	log.Info().
		Int("stations", len(dataset.Stations)).
		Int("trains", len(dataset.Trains)).
		Int("schedules", len(dataset.Schedules)).
		Msg("Loaded datameet files")

	return dataset, nil
}

func readJSON(fsys fs.FS, name string, destination any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, destination); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// Timetable converts the dataset into stations and daily train runs.
// Duplicate stations or trains and schedule rows that reference unknown ones
// are skipped with a warning.
func (d *Dataset) Timetable() ([]*timetable.Station, []*timetable.TrainRun, error) {
	stations := []*timetable.Station{}
	stationCodes := map[string]bool{}
	for _, properties := range d.Stations {
		code := timetable.NormaliseCode(string(properties.Code))
		if code == "" || stationCodes[code] {
			continue
		}
		stationCodes[code] = true

		city := string(properties.Address)
		if city == "" {
			city = string(properties.State)
		}
		stations = append(stations, &timetable.Station{
			Code:  code,
			Name:  string(properties.Name),
			City:  city,
			State: string(properties.State),
		})
	}

	trainNames := map[string]string{}
	trainOrder := []string{}
	for _, properties := range d.Trains {
		number := string(properties.Number)
		if _, exists := trainNames[number]; number == "" || exists {
			continue
		}
		trainNames[number] = string(properties.Name)
		trainOrder = append(trainOrder, number)
	}

	entries := map[string][]ScheduleEntry{}
	skipped := 0
	for _, entry := range d.Schedules {
		number := string(entry.TrainNumber)
		code := timetable.NormaliseCode(string(entry.StationCode))
		if _, known := trainNames[number]; !known || !stationCodes[code] {
			skipped++
			continue
		}
		entry.StationCode = looseString(code)
		entries[number] = append(entries[number], entry)
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("Schedule entries reference unknown trains or stations")
	}

	runs := []*timetable.TrainRun{}
	for _, number := range trainOrder {
		run, err := buildRun(number, trainNames[number], entries[number])
		if err != nil {
			log.Warn().Err(err).Str("train", number).Msg("Skipping train")
			continue
		}
		if run != nil {
			runs = append(runs, run)
		}
	}

	return stations, runs, nil
}

func buildRun(number string, name string, entries []ScheduleEntry) (*timetable.TrainRun, error) {
	if len(entries) < 2 {
		return nil, nil
	}

	slices.SortStableFunc(entries, func(a, b ScheduleEntry) int {
		return a.ID.Int(0) - b.ID.Int(0)
	})

	run := &timetable.TrainRun{
		ID:           number,
		Number:       number,
		Name:         name,
		Availability: timetable.Daily(),
	}

	last := timetable.NoTime
	for _, entry := range entries {
		dayOffset := entry.Day.Int(1) - 1
		if dayOffset < 0 {
			dayOffset = 0
		}

		stop := timetable.Stop{
			Station:  string(entry.StationCode),
			Distance: entry.Distance.Float(),
		}

		var err error
		if stop.Arrival, err = timetable.ParseClock(string(entry.Arrival), dayOffset); err != nil {
			return nil, err
		}
		if stop.Departure, err = timetable.ParseClock(string(entry.Departure), dayOffset); err != nil {
			return nil, err
		}

		stop.Arrival = monotonic(stop.Arrival, last)
		if stop.Arrival.IsSet() {
			last = stop.Arrival
		}
		stop.Departure = monotonic(stop.Departure, last)
		if stop.Departure.IsSet() {
			last = stop.Departure
		}

		run.Stops = append(run.Stops, stop)
	}

	// The source marks the origin arrival and terminus departure as missing
	run.Stops[0].Arrival = timetable.NoTime
	run.Stops[len(run.Stops)-1].Departure = timetable.NoTime

	if !run.Origin().CanBoard() {
		return nil, fmt.Errorf("train %s has no departure from its origin", number)
	}

	return run, nil
}

// monotonic rolls a time forward by whole days until it is not before last.
// Day counters in the dataset are sometimes stale around midnight.
func monotonic(value timetable.Minutes, last timetable.Minutes) timetable.Minutes {
	if !value.IsSet() || !last.IsSet() {
		return value
	}
	for value < last {
		value += timetable.MinutesPerDay
	}
	return value
}
