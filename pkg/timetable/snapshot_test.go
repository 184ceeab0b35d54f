package timetable_test

import (
	"errors"
	"testing"
	"time"

	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/railconnect/railconnect/pkg/timetable/timetabletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stops(codes ...string) []timetable.Stop {
	var result []timetable.Stop
	for i, code := range codes {
		result = append(result, timetable.Stop{
			Station:   code,
			Arrival:   timetable.Minutes(i * 60),
			Departure: timetable.Minutes(i*60 + 5),
		})
	}
	result[0].Arrival = timetable.NoTime
	result[len(result)-1].Departure = timetable.NoTime
	return result
}

func TestNewSnapshotUnknownStation(t *testing.T) {
	stations := []*timetable.Station{{Code: "A", Name: "Alpha"}}
	runs := []*timetable.TrainRun{{ID: "1", Number: "1", Stops: stops("A", "Z")}}

	_, err := timetable.NewSnapshot(stations, runs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, timetable.ErrData))

	var dataError *timetable.DataError
	require.True(t, errors.As(err, &dataError))
	assert.Equal(t, "Z", dataError.Station)
	assert.Equal(t, "1", dataError.Run)
}

func TestNewSnapshotRejectsInconsistentRuns(t *testing.T) {
	stations := []*timetable.Station{{Code: "A"}, {Code: "B"}}

	backwards := stops("A", "B")
	backwards[1].Arrival = 1

	tests := map[string][]*timetable.TrainRun{
		"single stop":   {{ID: "1", Stops: stops("A", "B")[:1]}},
		"no identifier": {{Stops: stops("A", "B")}},
		"duplicate":     {{ID: "1", Stops: stops("A", "B")}, {ID: "1", Stops: stops("A", "B")}},
		"backwards":     {{ID: "1", Stops: backwards}},
	}

	for name, runs := range tests {
		_, err := timetable.NewSnapshot(stations, runs)
		assert.ErrorIs(t, err, timetable.ErrData, name)
	}

	_, err := timetable.NewSnapshot([]*timetable.Station{{Code: "A"}, {Code: "A"}}, nil)
	assert.ErrorIs(t, err, timetable.ErrData)

	_, err = timetable.NewSnapshot([]*timetable.Station{{Code: "ndls"}}, nil)
	assert.ErrorIs(t, err, timetable.ErrData)
}

func TestRunsByStation(t *testing.T) {
	snapshot := timetabletest.New(t).
		Run("200", "Second", "B - 09:00", "C 10:00 -").
		Run("100", "First", "A - 08:00", "B 08:50 09:00", "C 11:00 -").
		Snapshot()

	runStops := snapshot.RunsByStation("b")
	require.Len(t, runStops, 2)
	assert.Equal(t, "100", runStops[0].Run.Number)
	assert.Equal(t, 1, runStops[0].StopIndex)
	assert.Equal(t, "200", runStops[1].Run.Number)
	assert.Equal(t, 0, runStops[1].StopIndex)

	assert.Empty(t, snapshot.RunsByStation("Q"))
}

func TestIsRunActiveAndServiceDate(t *testing.T) {
	sundays := &timetable.Availability{
		Match: []timetable.AvailabilityRule{{Type: timetable.AvailabilityDayOfWeek, Value: "Sunday"}},
	}
	snapshot := timetabletest.New(t).
		RunOn("300", "Night", sundays, "A - 22:00", "B 01:00+1 01:10+1", "C 06:00+1 -").
		Snapshot()
	run := snapshot.Runs()[0]

	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)

	assert.True(t, snapshot.IsRunActive(run, sunday))
	assert.False(t, snapshot.IsRunActive(run, monday))

	// B departs on monday but belongs to the sunday run
	serviceDate := timetable.ServiceDateAt(run.Stops[1].Departure, monday)
	assert.Equal(t, sunday, serviceDate)
	assert.True(t, snapshot.IsRunActive(run, serviceDate))
}

func TestResolveStation(t *testing.T) {
	snapshot := timetabletest.New(t).
		Station("NDLS", "New Delhi", "Delhi").
		Station("DLI", "Old Delhi Junction", "Delhi").
		Station("BCT", "Mumbai Central", "Mumbai").
		Snapshot()

	station, found := snapshot.ResolveStation("bct")
	require.True(t, found)
	assert.Equal(t, "BCT", station.Code)

	station, found = snapshot.ResolveStation("delhi")
	require.True(t, found)
	assert.Equal(t, "DLI", station.Code)

	station, found = snapshot.ResolveStation("Mumbai")
	require.True(t, found)
	assert.Equal(t, "BCT", station.Code)

	_, found = snapshot.ResolveStation("Chennai")
	assert.False(t, found)
	_, found = snapshot.ResolveStation("  ")
	assert.False(t, found)
}

func TestStationsPagingAndBusiest(t *testing.T) {
	snapshot := timetabletest.New(t).
		Run("1", "One", "A - 08:00", "B 09:00 -").
		Run("2", "Two", "C - 08:00", "B 09:00 09:10", "D 10:00 -").
		Snapshot()

	all := snapshot.Stations(0, 100)
	require.Len(t, all, 4)
	assert.Equal(t, "A", all[0].Code)

	page := snapshot.Stations(1, 2)
	require.Len(t, page, 2)
	assert.Equal(t, "B", page[0].Code)
	assert.Equal(t, "C", page[1].Code)

	assert.Empty(t, snapshot.Stations(10, 5))
	assert.Empty(t, snapshot.Stations(0, 0))

	busiest := snapshot.BusiestStations(1)
	require.Len(t, busiest, 1)
	assert.Equal(t, "B", busiest[0].Code)
	assert.Equal(t, 2, snapshot.CallingRuns("B"))
}

func TestSnapshotVersionIsContentBased(t *testing.T) {
	build := func() *timetable.Snapshot {
		return timetabletest.New(t).Run("1", "One", "A - 08:00", "B 09:00 -").Snapshot()
	}
	changed := timetabletest.New(t).Run("1", "One", "A - 08:05", "B 09:00 -").Snapshot()

	assert.Equal(t, build().Version(), build().Version())
	assert.NotEqual(t, build().Version(), changed.Version())
}

func TestTrainRunServes(t *testing.T) {
	snapshot := timetabletest.New(t).Run("1", "One", "A - 08:00", "B 09:00 09:05", "C 10:00 -").Snapshot()
	run := snapshot.Runs()[0]

	assert.True(t, run.Serves("A", "C"))
	assert.True(t, run.Serves("B", "C"))
	assert.False(t, run.Serves("C", "A"))
	assert.False(t, run.Serves("A", "Q"))
}
