// Package routeformat shapes ranked itineraries into the JSON returned by /api/routes.
//
// Departure and arrival values are "YYYY-MM-DD HH:MM:SS" in railway local time.
// Clients split them on the single space: the first part is the date and the
// second the time of day.
package routeformat

import (
	"encoding/json"
	"time"

	"github.com/jinzhu/copier"
	"github.com/railconnect/railconnect/pkg/routegraph"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/timetable"
)

const DateTimeFormat = "2006-01-02 15:04:05"

const (
	TypeDirect     = "direct"
	TypeConnecting = "connecting"
)

type Response struct {
	Routes []Route `json:"routes"`
}

// Route is either a *DirectRoute or a *ConnectingRoute
type Route interface {
	RouteType() string
	TotalMinutes() int
}

type Leg struct {
	TrainNumber string `json:"train_number"`
	TrainName   string `json:"train_name"`
	From        string `json:"from"`
	To          string `json:"to"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`
}

type DirectRoute struct {
	Type         string `json:"type"`
	TrainNumber  string `json:"train_number"`
	TrainName    string `json:"train_name"`
	From         string `json:"from"`
	To           string `json:"to"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival"`
	DurationMins int    `json:"duration_mins"`
	Switches     int    `json:"switches"`
}

func (r *DirectRoute) RouteType() string { return r.Type }
func (r *DirectRoute) TotalMinutes() int { return r.DurationMins }

type ConnectingRoute struct {
	Type     string `json:"type"`
	Switches int    `json:"switches"`

	Leg1 Leg  `json:"leg1"`
	Leg2 Leg  `json:"leg2"`
	Leg3 *Leg `json:"leg3,omitempty"`

	LayoverMins         int    `json:"layover_mins"`
	TransferStation     string `json:"transfer_station"`
	TransferStationName string `json:"transfer_station_name"`

	LayoverMins2         *int   `json:"layover_mins2,omitempty"`
	TransferStation2     string `json:"transfer_station2,omitempty"`
	TransferStationName2 string `json:"transfer_station_name2,omitempty"`

	TotalDurationMins int `json:"total_duration_mins"`
}

func (r *ConnectingRoute) RouteType() string { return r.Type }
func (r *ConnectingRoute) TotalMinutes() int { return r.TotalDurationMins }

// Format maps a search result to the response body. It never returns a nil route list.
func Format(result *routesearch.Result) (*Response, error) {
	response := &Response{Routes: []Route{}}
	if result == nil {
		return response, nil
	}

	for _, itinerary := range result.Itineraries {
		route, err := FormatItinerary(result.Snapshot, itinerary)
		if err != nil {
			return nil, err
		}
		response.Routes = append(response.Routes, route)
	}

	return response, nil
}

// Marshal formats a search result and encodes it as the /api/routes body
func Marshal(result *routesearch.Result) ([]byte, error) {
	response, err := Format(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(response)
}

func FormatItinerary(snapshot *timetable.Snapshot, itinerary routesearch.Itinerary) (Route, error) {
	if itinerary.Switches() == 0 {
		leg := formatLeg(itinerary.Segments[0])

		direct := &DirectRoute{}
		if err := copier.Copy(direct, &leg); err != nil {
			return nil, err
		}
		direct.Type = TypeDirect
		direct.DurationMins = Minutes(itinerary.Duration())
		direct.Switches = 0

		return direct, nil
	}

	layovers := itinerary.Layovers()
	transfers := itinerary.TransferStations()

	connecting := &ConnectingRoute{
		Type:                TypeConnecting,
		Switches:            itinerary.Switches(),
		Leg1:                formatLeg(itinerary.Segments[0]),
		Leg2:                formatLeg(itinerary.Segments[1]),
		LayoverMins:         Minutes(layovers[0]),
		TransferStation:     transfers[0],
		TransferStationName: stationName(snapshot, transfers[0]),
		TotalDurationMins:   Minutes(itinerary.Duration()),
	}

	if itinerary.Switches() == 2 {
		leg3 := formatLeg(itinerary.Segments[2])
		layover2 := Minutes(layovers[1])

		connecting.Leg3 = &leg3
		connecting.LayoverMins2 = &layover2
		connecting.TransferStation2 = transfers[1]
		connecting.TransferStationName2 = stationName(snapshot, transfers[1])
	}

	return connecting, nil
}

func formatLeg(segment routegraph.Segment) Leg {
	return Leg{
		TrainNumber: segment.Run.Number,
		TrainName:   segment.Run.Name,
		From:        segment.From(),
		To:          segment.To(),
		Departure:   segment.Departure.Format(DateTimeFormat),
		Arrival:     segment.Arrival.Format(DateTimeFormat),
	}
}

func stationName(snapshot *timetable.Snapshot, code string) string {
	if snapshot != nil {
		if station, exists := snapshot.Station(code); exists && station.Name != "" {
			return station.Name
		}
	}
	return code
}

// Minutes converts a duration to whole minutes
func Minutes(duration time.Duration) int {
	return int(duration / time.Minute)
}
