package routesearch

import (
	"fmt"
	"strings"
	"time"

	"github.com/railconnect/railconnect/pkg/routegraph"
)

// Itinerary is one to three chained segments from origin to destination
type Itinerary struct {
	Segments []routegraph.Segment
}

func (i Itinerary) Departure() time.Time {
	return i.Segments[0].Departure
}

func (i Itinerary) Arrival() time.Time {
	return i.Segments[len(i.Segments)-1].Arrival
}

func (i Itinerary) Duration() time.Duration {
	return i.Arrival().Sub(i.Departure())
}

func (i Itinerary) Switches() int {
	return len(i.Segments) - 1
}

// Layovers are the waits at each transfer station in order
func (i Itinerary) Layovers() []time.Duration {
	var layovers []time.Duration
	for n := 1; n < len(i.Segments); n++ {
		layovers = append(layovers, i.Segments[n].Departure.Sub(i.Segments[n-1].Arrival))
	}
	return layovers
}

func (i Itinerary) TransferStations() []string {
	var stations []string
	for n := 1; n < len(i.Segments); n++ {
		stations = append(stations, i.Segments[n].From())
	}
	return stations
}

// TrainNumbers lists the public train numbers in order of travel
func (i Itinerary) TrainNumbers() string {
	numbers := make([]string, len(i.Segments))
	for n, segment := range i.Segments {
		numbers[n] = segment.Run.Number
	}
	return strings.Join(numbers, "/")
}

// Key is equal for itineraries using the identical ordered segment list
func (i Itinerary) Key() string {
	var key strings.Builder
	for n, segment := range i.Segments {
		if n > 0 {
			key.WriteByte('>')
		}
		segmentKey := segment.Key()
		fmt.Fprintf(&key, "%s@%d:%d-%d", segmentKey.Run, segmentKey.ServiceDate, segmentKey.Board, segmentKey.Alight)
	}
	return key.String()
}
