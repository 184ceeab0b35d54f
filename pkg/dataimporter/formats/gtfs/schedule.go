package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

const gtfsDateFormat = "20060102"

type Schedule struct {
	Stops         []Stop
	Routes        []Route
	Trips         []Trip
	StopTimes     []StopTime
	Calendars     []Calendar
	CalendarDates []CalendarDate
}

func (gtfs *Schedule) ParseFile(reader io.Reader) error {
	// Allow us to ignore those naughty records that have missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	fileMap := map[string]interface{}{
		"stops.txt":          &gtfs.Stops,
		"routes.txt":         &gtfs.Routes,
		"trips.txt":          &gtfs.Trips,
		"stop_times.txt":     &gtfs.StopTimes,
		"calendar.txt":       &gtfs.Calendars,
		"calendar_dates.txt": &gtfs.CalendarDates,
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return err
	}

	for _, zipFile := range archive.File {
		fileName := zipFile.Name
		destination, exists := fileMap[fileName]
		if !exists {
			log.Debug().Str("file", fileName).Msg("Ignoring gtfs file")
			continue
		}

		log.Info().Str("file", fileName).Msg("Loading file")

		if err := unmarshalZipFile(zipFile, destination); err != nil {
			log.Error().Str("file", fileName).Err(err).Msg("Failed to parse csv file")
			return err
		}
	}

	return nil
}

func unmarshalZipFile(zipFile *zip.File, destination interface{}) error {
	fileReader, err := zipFile.Open()
	if err != nil {
		return err
	}
	defer fileReader.Close()

	return gocsv.Unmarshal(fileReader, destination)
}

// Timetable converts the schedule into stations and train runs. Platforms are
// folded into their parent station and each trip becomes one run.
func (gtfs *Schedule) Timetable() ([]*timetable.Station, []*timetable.TrainRun, error) {
	// Stops
	stopCodes := map[string]string{}
	stations := []*timetable.Station{}
	for _, stop := range gtfs.Stops {
		if stop.Parent != "" {
			continue
		}
		code := stop.Code
		if code == "" {
			code = stop.ID
		}
		code = timetable.NormaliseCode(code)
		if _, exists := stopCodes[stop.ID]; exists {
			continue
		}
		stopCodes[stop.ID] = code
		stations = append(stations, &timetable.Station{
			Code: code,
			Name: stop.Name,
			City: stop.Description,
		})
	}
	for _, stop := range gtfs.Stops {
		if parent, exists := stopCodes[stop.Parent]; stop.Parent != "" && exists {
			stopCodes[stop.ID] = parent
		}
	}

	// Routes
	routeNames := map[string]string{}
	for _, route := range gtfs.Routes {
		name := route.LongName
		if name == "" {
			name = route.ShortName
		}
		routeNames[route.ID] = name
	}

	// Calendars
	availabilities, err := gtfs.availabilities()
	if err != nil {
		return nil, nil, err
	}

	// Stop Times
	tripStopTimes := map[string][]StopTime{}
	for _, stopTime := range gtfs.StopTimes {
		tripStopTimes[stopTime.TripID] = append(tripStopTimes[stopTime.TripID], stopTime)
	}

	runs := []*timetable.TrainRun{}
	for _, trip := range gtfs.Trips {
		stopTimes := tripStopTimes[trip.ID]
		if len(stopTimes) < 2 {
			log.Debug().Str("trip", trip.ID).Msg("Trip has fewer than two stop times")
			continue
		}
		slices.SortFunc(stopTimes, func(a, b StopTime) int {
			return a.StopSequence - b.StopSequence
		})

		number := strings.TrimSpace(trip.Name)
		if number == "" {
			number = trip.ID
		}

		availability, exists := availabilities[trip.ServiceID]
		if !exists {
			log.Warn().Str("trip", trip.ID).Str("service", trip.ServiceID).Msg("Trip has no calendar")
			continue
		}

		run := &timetable.TrainRun{
			ID:           trip.ID,
			Number:       number,
			Name:         routeNames[trip.RouteID],
			Availability: availability,
		}

		for index, stopTime := range stopTimes {
			code, exists := stopCodes[stopTime.StopID]
			if !exists {
				return nil, nil, &timetable.DataError{Run: trip.ID, Station: stopTime.StopID, Reason: "stop time references unknown stop"}
			}

			stop := timetable.Stop{
				Station:  code,
				Distance: stopTime.DistanceTravelled,
			}

			// GTFS keeps counting hours past midnight so the day offset is always zero
			if stop.Arrival, err = timetable.ParseClock(stopTime.ArrivalTime, 0); err != nil {
				return nil, nil, &timetable.DataError{Run: trip.ID, Station: code, Reason: err.Error()}
			}
			if stop.Departure, err = timetable.ParseClock(stopTime.DepartureTime, 0); err != nil {
				return nil, nil, &timetable.DataError{Run: trip.ID, Station: code, Reason: err.Error()}
			}

			if index == 0 || stopTime.DropOffType == 1 {
				stop.Arrival = timetable.NoTime
			}
			if index == len(stopTimes)-1 || stopTime.PickupType == 1 {
				stop.Departure = timetable.NoTime
			}

			run.Stops = append(run.Stops, stop)
		}

		runs = append(runs, run)
	}

	return stations, runs, nil
}

func (gtfs *Schedule) availabilities() (map[string]*timetable.Availability, error) {
	availabilities := map[string]*timetable.Availability{}

	for _, calendar := range gtfs.Calendars {
		availability := &timetable.Availability{}

		for _, day := range calendar.GetRunningDays() {
			availability.Match = append(availability.Match, timetable.AvailabilityRule{
				Type:  timetable.AvailabilityDayOfWeek,
				Value: day.String(),
			})
		}

		dateRunsFrom, err := time.Parse(gtfsDateFormat, calendar.Start)
		if err != nil {
			return nil, fmt.Errorf("calendar %s start_date: %w", calendar.ServiceID, err)
		}
		dateRunsTo, err := time.Parse(gtfsDateFormat, calendar.End)
		if err != nil {
			return nil, fmt.Errorf("calendar %s end_date: %w", calendar.ServiceID, err)
		}

		availability.Condition = append(availability.Condition, timetable.AvailabilityRule{
			Type:  timetable.AvailabilityDateRange,
			Value: fmt.Sprintf("%s:%s", dateRunsFrom.Format(timetable.YearMonthDayFormat), dateRunsTo.Format(timetable.YearMonthDayFormat)),
		})

		availabilities[calendar.ServiceID] = availability
	}

	for _, calendarDate := range gtfs.CalendarDates {
		date, err := time.Parse(gtfsDateFormat, calendarDate.Date)
		if err != nil {
			return nil, fmt.Errorf("calendar date %s: %w", calendarDate.ServiceID, err)
		}

		availability, exists := availabilities[calendarDate.ServiceID]
		if !exists {
			availability = &timetable.Availability{}
			availabilities[calendarDate.ServiceID] = availability
		}

		rule := timetable.AvailabilityRule{
			Type:  timetable.AvailabilityDate,
			Value: date.Format(timetable.YearMonthDayFormat),
		}

		switch calendarDate.ExceptionType {
		case CalendarDateAdded:
			availability.Match = append(availability.Match, rule)
		case CalendarDateRemoved:
			availability.Exclude = append(availability.Exclude, rule)
		}
	}

	return availabilities, nil
}
