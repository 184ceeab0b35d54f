package routesearch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/railconnect/railconnect/pkg/timetable/timetabletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var travelDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func testOptions() Options {
	options := DefaultOptions()
	options.Workers = 4
	return options
}

func delhiMumbai(t *testing.T) *timetable.Store {
	return timetabletest.New(t).
		Station("NDLS", "New Delhi", "Delhi").
		Station("KOTA", "Kota Junction", "Kota").
		Station("BRC", "Vadodara Junction", "Vadodara").
		Station("BCT", "Mumbai Central", "Mumbai").
		Station("JP", "Jaipur Junction", "Jaipur").
		Run("12952", "Mumbai Rajdhani", "NDLS - 16:55", "KOTA 21:30 21:35", "BRC 03:45+1 03:55+1", "BCT 08:35+1 -").
		Run("12954", "August Kranti Rajdhani", "NDLS - 17:40", "KOTA 22:45 22:55", "BRC 05:30+1 05:40+1", "BCT 10:15+1 -").
		Run("12904", "Golden Temple Mail", "NDLS - 07:20", "KOTA 14:00 14:10", "BRC 23:50 00:05+1", "BCT 05:00+1 -").
		Run("12060", "Jan Shatabdi", "NDLS - 06:00", "JP 09:30 09:35", "KOTA 11:00 -").
		Run("12956", "Jaipur Superfast", "JP - 10:00", "KOTA 11:45 11:50", "BCT 23:00 -").
		Store()
}

func runSearch(t *testing.T, engine *Engine, origin string, destination string, criterion Criterion, switches ...int) []Itinerary {
	t.Helper()

	result, err := engine.Search(context.Background(), Request{
		Origin:      origin,
		Destination: destination,
		Date:        travelDate,
		Criterion:   criterion,
		Switches:    switches,
	})
	require.NoError(t, err)
	return result.Itineraries
}

func TestFastestDelhiToMumbai(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())

	itineraries := runSearch(t, engine, "NDLS", "BCT", Fastest, 0, 1)
	require.NotEmpty(t, itineraries)

	for i := 1; i < len(itineraries); i++ {
		assert.LessOrEqual(t, itineraries[i-1].Duration(), itineraries[i].Duration())
	}
	for _, itinerary := range itineraries {
		assert.LessOrEqual(t, itineraries[0].Duration(), itinerary.Duration())
	}

	assert.Equal(t, "12952", itineraries[0].TrainNumbers())
	assert.Equal(t, 15*time.Hour+40*time.Minute, itineraries[0].Duration())

	var numbers []string
	for _, itinerary := range itineraries {
		numbers = append(numbers, itinerary.TrainNumbers())
	}
	assert.Equal(t, []string{"12952", "12954", "12060/12956", "12904"}, numbers)
}

func TestItinerariesStartAtOriginAndEndAtDestination(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())

	for _, criterion := range []Criterion{Fastest, FewestSwitches} {
		for _, itinerary := range runSearch(t, engine, "NDLS", "BCT", criterion, 0, 1, 2) {
			assert.Equal(t, "NDLS", itinerary.Segments[0].From())
			assert.Equal(t, "BCT", itinerary.Segments[len(itinerary.Segments)-1].To())

			for i := 1; i < len(itinerary.Segments); i++ {
				previous, next := itinerary.Segments[i-1], itinerary.Segments[i]
				assert.Equal(t, previous.To(), next.From())
				assert.False(t, next.Departure.Before(previous.Arrival.Add(engine.Options().MinTransfer)))
			}
		}
	}
}

func TestFewestSwitchesOrdering(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())

	itineraries := runSearch(t, engine, "NDLS", "BCT", FewestSwitches, 0, 1, 2)
	require.NotEmpty(t, itineraries)

	for i := 1; i < len(itineraries); i++ {
		assert.LessOrEqual(t, itineraries[i-1].Switches(), itineraries[i].Switches())
		if itineraries[i-1].Switches() == itineraries[i].Switches() {
			assert.LessOrEqual(t, itineraries[i-1].Duration(), itineraries[i].Duration())
		}
	}
	assert.Equal(t, "12904", itineraries[2].TrainNumbers())
	assert.Equal(t, 1, itineraries[3].Switches())
}

func TestSearchIsIdempotent(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())

	first := runSearch(t, engine, "NDLS", "BCT", Fastest, 0, 1, 2)
	for range 5 {
		again := runSearch(t, engine, "NDLS", "BCT", Fastest, 0, 1, 2)
		require.Len(t, again, len(first))
		for i := range first {
			assert.Equal(t, first[i].Key(), again[i].Key())
		}
	}
}

func TestConcurrentSearchesAgree(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())
	expected := runSearch(t, engine, "NDLS", "BCT", Fastest, 0, 1, 2)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.Search(context.Background(), Request{
				Origin: "NDLS", Destination: "BCT", Date: travelDate, Criterion: Fastest, Switches: []int{0, 1, 2},
			})
			if assert.NoError(t, err) && assert.Len(t, result.Itineraries, len(expected)) {
				for i := range expected {
					assert.Equal(t, expected[i].Key(), result.Itineraries[i].Key())
				}
			}
		}()
	}
	wg.Wait()
}

func TestOneSwitchLayoverIncluded(t *testing.T) {
	store := timetabletest.New(t).
		Run("101", "A to B", "A - 08:00", "B 10:00 -").
		Run("202", "B to C", "B - 10:30", "C 13:00 -").
		Store()
	engine := NewEngine(store, testOptions())

	itineraries := runSearch(t, engine, "A", "C", Fastest, 1)
	require.Len(t, itineraries, 1)
	assert.Equal(t, 1, itineraries[0].Switches())
	assert.Equal(t, []time.Duration{30 * time.Minute}, itineraries[0].Layovers())
	assert.Equal(t, []string{"B"}, itineraries[0].TransferStations())
	assert.Equal(t, 5*time.Hour, itineraries[0].Duration())
}

func TestOneSwitchShortLayoverExcluded(t *testing.T) {
	store := timetabletest.New(t).
		Run("101", "A to B", "A - 08:00", "B 10:00 -").
		Run("202", "B to C", "B - 10:15", "C 13:00 -").
		Store()
	engine := NewEngine(store, testOptions())

	assert.Empty(t, runSearch(t, engine, "A", "C", Fastest, 0, 1, 2))
}

func TestLayoverAcrossMidnight(t *testing.T) {
	store := timetabletest.New(t).
		Run("1", "Evening", "A - 22:00", "B 23:30 -").
		Run("2", "Early", "B - 00:10", "C 02:00 -").
		Store()
	engine := NewEngine(store, testOptions())

	itineraries := runSearch(t, engine, "A", "C", Fastest, 1)
	require.Len(t, itineraries, 1)
	assert.Equal(t, []time.Duration{40 * time.Minute}, itineraries[0].Layovers())
	assert.Equal(t, 4*time.Hour, itineraries[0].Duration())
	assert.Equal(t, travelDate.AddDate(0, 0, 1), itineraries[0].Segments[1].ServiceDate)
}

func TestMaximumLayover(t *testing.T) {
	build := func() *timetable.Store {
		return timetabletest.New(t).
			Run("1", "Morning", "A - 06:00", "B 08:00 -").
			Run("2", "Night", "B - 20:30", "C 22:00 -").
			Store()
	}

	assert.Empty(t, runSearch(t, NewEngine(build(), testOptions()), "A", "C", Fastest, 1))

	options := testOptions()
	options.MaxLayover = 13 * time.Hour
	assert.Len(t, runSearch(t, NewEngine(build(), options), "A", "C", Fastest, 1), 1)
}

func TestTwoSwitches(t *testing.T) {
	store := timetabletest.New(t).
		Run("1", "First", "A - 08:00", "B 09:00 -").
		Run("2", "Second", "B - 09:30", "C 10:30 -").
		Run("3", "Third", "C - 11:00", "D 12:00 -").
		Store()
	engine := NewEngine(store, testOptions())

	assert.Empty(t, runSearch(t, engine, "A", "D", Fastest, 0, 1))

	itineraries := runSearch(t, engine, "A", "D", Fastest, 2)
	require.Len(t, itineraries, 1)
	assert.Equal(t, 2, itineraries[0].Switches())
	assert.Equal(t, "1/2/3", itineraries[0].TrainNumbers())
	assert.Equal(t, []string{"B", "C"}, itineraries[0].TransferStations())
	assert.Equal(t, []time.Duration{30 * time.Minute, 30 * time.Minute}, itineraries[0].Layovers())
}

func TestNoStationRevisited(t *testing.T) {
	// Going back through A must not be offered as a two switch route
	store := timetabletest.New(t).
		Run("1", "Out", "A - 08:00", "B 09:00 -").
		Run("2", "Back", "B - 09:30", "A 10:30 -").
		Run("3", "Onward", "A - 11:00", "C 12:00 -").
		Store()
	options := testOptions()
	options.ExcludeDirectTrains = false
	options.OneSwitchRatio = 0
	options.TwoSwitchRatio = 0
	engine := NewEngine(store, options)

	itineraries := runSearch(t, engine, "A", "C", Fastest, 0, 1, 2)
	require.Len(t, itineraries, 1)
	assert.Equal(t, "3", itineraries[0].TrainNumbers())
}

func TestExcludeDirectTrains(t *testing.T) {
	build := func() *timetable.Store {
		return timetabletest.New(t).
			Run("D", "Direct", "A - 08:00", "B 09:00 09:10", "C 11:00 -").
			Run("E", "Express", "B - 09:40", "C 10:50 -").
			Store()
	}

	itineraries := runSearch(t, NewEngine(build(), testOptions()), "A", "C", Fastest, 0, 1)
	require.Len(t, itineraries, 1)
	assert.Equal(t, "D", itineraries[0].TrainNumbers())

	options := testOptions()
	options.ExcludeDirectTrains = false
	itineraries = runSearch(t, NewEngine(build(), options), "A", "C", Fastest, 0, 1)
	require.Len(t, itineraries, 2)
	assert.Equal(t, "D/E", itineraries[0].TrainNumbers())
	assert.Equal(t, "D", itineraries[1].TrainNumbers())
}

func TestDetourRatio(t *testing.T) {
	build := func() *timetable.Store {
		return timetabletest.New(t).
			Run("D", "Direct", "A - 08:00", "C 10:00 -").
			Run("X", "Slow", "A - 06:00", "B 07:00 -").
			Run("Y", "Slower", "B - 07:30", "C 09:00 -").
			Store()
	}

	itineraries := runSearch(t, NewEngine(build(), testOptions()), "A", "C", Fastest, 0, 1)
	require.Len(t, itineraries, 1)

	options := testOptions()
	options.OneSwitchRatio = 0
	itineraries = runSearch(t, NewEngine(build(), options), "A", "C", Fastest, 0, 1)
	require.Len(t, itineraries, 2)
	assert.Equal(t, "X/Y", itineraries[1].TrainNumbers())
}

func TestCollapseTrainCombinations(t *testing.T) {
	build := func() *timetable.Store {
		return timetabletest.New(t).
			Run("1", "Feeder", "A - 08:00", "B 09:00 09:05", "X 09:30 -").
			Run("2", "Main", "B - 10:00", "X 10:20 10:25", "C 12:00 -").
			Store()
	}

	itineraries := runSearch(t, NewEngine(build(), testOptions()), "A", "C", Fastest, 1)
	require.Len(t, itineraries, 1)
	assert.Equal(t, []string{"B"}, itineraries[0].TransferStations())

	options := testOptions()
	options.CollapseTrainCombinations = false
	itineraries = runSearch(t, NewEngine(build(), options), "A", "C", Fastest, 1)
	require.Len(t, itineraries, 2)
	assert.Equal(t, []string{"B"}, itineraries[0].TransferStations())
	assert.Equal(t, []string{"X"}, itineraries[1].TransferStations())
}

func TestFanOutCap(t *testing.T) {
	build := func() *timetable.Store {
		return timetabletest.New(t).
			Run("1", "First", "A - 08:00", "B 09:00 -").
			Run("2", "Second", "A - 09:00", "B 10:00 -").
			Run("3", "Onward", "B - 12:00", "C 13:00 -").
			Store()
	}

	options := testOptions()
	options.FanOut = 1
	itineraries := runSearch(t, NewEngine(build(), options), "A", "C", Fastest, 1)
	require.Len(t, itineraries, 1)
	assert.Equal(t, "1/3", itineraries[0].TrainNumbers())

	options.FanOut = 2
	assert.Len(t, runSearch(t, NewEngine(build(), options), "A", "C", Fastest, 1), 2)
}

func TestLimit(t *testing.T) {
	options := testOptions()
	options.Limit = 2

	itineraries := runSearch(t, NewEngine(delhiMumbai(t), options), "NDLS", "BCT", Fastest, 0, 1)
	assert.Len(t, itineraries, 2)
}

func TestNoActiveDeparturesGivesEmptyResult(t *testing.T) {
	mondays := &timetable.Availability{
		Match: []timetable.AvailabilityRule{{Type: timetable.AvailabilityDayOfWeek, Value: "Monday"}},
	}
	store := timetabletest.New(t).
		RunOn("1", "Monday only", mondays, "A - 08:00", "B 09:00 -").
		Store()
	engine := NewEngine(store, testOptions())

	result, err := engine.Search(context.Background(), Request{Origin: "A", Destination: "B", Date: travelDate, Criterion: Fastest})
	require.NoError(t, err)
	assert.Empty(t, result.Itineraries)
}

func TestInvalidRequests(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())

	tests := map[string]Request{
		"same station":      {Origin: "X", Destination: "X", Date: travelDate, Criterion: Fastest},
		"same after lookup": {Origin: "NDLS", Destination: "new delhi", Date: travelDate, Criterion: Fastest},
		"unknown origin":    {Origin: "QQQ", Destination: "BCT", Date: travelDate, Criterion: Fastest},
		"missing":           {Origin: "", Destination: "BCT", Date: travelDate, Criterion: Fastest},
		"cheapest":          {Origin: "NDLS", Destination: "BCT", Date: travelDate, Criterion: Cheapest},
		"unknown criterion": {Origin: "NDLS", Destination: "BCT", Date: travelDate, Criterion: "scenic"},
		"no date":           {Origin: "NDLS", Destination: "BCT", Criterion: Fastest},
		"switches":          {Origin: "NDLS", Destination: "BCT", Date: travelDate, Criterion: Fastest, Switches: []int{3}},
	}

	for name, request := range tests {
		_, err := engine.Search(context.Background(), request)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidRequest), name)

		var invalid *InvalidRequestError
		assert.True(t, errors.As(err, &invalid), name)
		assert.NotEmpty(t, invalid.Reason, name)
	}
}

func TestDefaultsApplied(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())

	result, err := engine.Search(context.Background(), Request{Origin: "Delhi", Destination: "mumbai", Date: travelDate.Add(15 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "NDLS", result.Query.Origin.Code)
	assert.Equal(t, "BCT", result.Query.Destination.Code)
	assert.Equal(t, Fastest, result.Query.Criterion)
	assert.Equal(t, []int{0, 1}, result.Query.Switches)
	assert.Equal(t, travelDate, result.Query.Date)
}

func TestSearchTimeout(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := engine.Search(ctx, Request{Origin: "NDLS", Destination: "BCT", Date: travelDate, Criterion: Fastest})
	assert.ErrorIs(t, err, ErrSearchTimeout)
}

func TestSearchCanceled(t *testing.T) {
	engine := NewEngine(delhiMumbai(t), testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Search(ctx, Request{Origin: "NDLS", Destination: "BCT", Date: travelDate, Criterion: Fastest})
	assert.ErrorIs(t, err, ErrSearchCanceled)
	assert.NotErrorIs(t, err, ErrSearchTimeout)
}

func TestFanOutSkipsDeadEndDepartures(t *testing.T) {
	builder := timetabletest.New(t)
	for i := 0; i < 30; i++ {
		departure := fmt.Sprintf("%02d:%02d", i/6, (i%6)*10)
		builder = builder.Run(fmt.Sprintf("L%02d", i), "Local", "A - "+departure, "D 05:30 -")
	}
	store := builder.
		Run("101", "Morning Express", "A - 08:00", "B 10:00 -").
		Run("202", "Onward Mail", "B - 10:30", "C 13:00 -").
		Store()

	itineraries := runSearch(t, NewEngine(store, DefaultOptions()), "A", "C", Fastest, 1)
	require.Len(t, itineraries, 1)
	assert.Equal(t, "101/202", itineraries[0].TrainNumbers())
	assert.Equal(t, 30*time.Minute, itineraries[0].Layovers()[0])

	// Dead ends still do not count when two changes are allowed
	itineraries = runSearch(t, NewEngine(store, DefaultOptions()), "A", "C", Fastest, 1, 2)
	require.Len(t, itineraries, 1)
	assert.Equal(t, "101/202", itineraries[0].TrainNumbers())
}
