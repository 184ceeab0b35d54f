package timetable

type Stop struct {
	Station   string  `json:"station" bson:"station"`
	Arrival   Minutes `json:"arrival" bson:"arrival"`
	Departure Minutes `json:"departure" bson:"departure"`
	Distance  float64 `json:"distance" bson:"distance"`
}

// CanBoard reports whether passengers can join the run at this stop
func (s *Stop) CanBoard() bool {
	return s.Departure.IsSet()
}

// CanAlight reports whether passengers can leave the run at this stop
func (s *Stop) CanAlight() bool {
	return s.Arrival.IsSet()
}

// TrainRun is one scheduled journey of a train over its ordered stops.
// ID is unique inside a snapshot while Number is the public train number and
// may repeat across runs with different calendars.
type TrainRun struct {
	ID           string        `json:"id" bson:"primaryidentifier"`
	Number       string        `json:"number" bson:"number"`
	Name         string        `json:"name" bson:"name"`
	Stops        []Stop        `json:"stops" bson:"stops"`
	Availability *Availability `json:"availability,omitempty" bson:"availability,omitempty"`
}

func (r *TrainRun) Origin() *Stop {
	return &r.Stops[0]
}

func (r *TrainRun) Terminus() *Stop {
	return &r.Stops[len(r.Stops)-1]
}

// Serves reports whether the run calls at both stations with from before to
func (r *TrainRun) Serves(from string, to string) bool {
	seenFrom := false
	for i := range r.Stops {
		stop := &r.Stops[i]
		if stop.Station == from && stop.CanBoard() {
			seenFrom = true
		} else if seenFrom && stop.Station == to && stop.CanAlight() {
			return true
		}
	}
	return false
}
