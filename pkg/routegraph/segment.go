package routegraph

import (
	"iter"
	"time"

	"github.com/railconnect/railconnect/pkg/timetable"
)

// Boarding is a departure of a run from one of its stops on a concrete date
type Boarding struct {
	Run         *timetable.TrainRun
	StopIndex   int
	ServiceDate time.Time
	Departure   time.Time
}

func (b Boarding) Station() string {
	return b.Run.Stops[b.StopIndex].Station
}

// Segments yields the journeys from this boarding to every later stop the
// run can be left at, nearest first
func (b Boarding) Segments() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for alight := b.StopIndex + 1; alight < len(b.Run.Stops); alight++ {
			stop := &b.Run.Stops[alight]
			if !stop.CanAlight() {
				continue
			}
			segment := Segment{
				Run:         b.Run,
				Board:       b.StopIndex,
				Alight:      alight,
				ServiceDate: b.ServiceDate,
				Departure:   b.Departure,
				Arrival:     stop.Arrival.At(b.ServiceDate),
			}
			if !yield(segment) {
				return
			}
		}
	}
}

// SegmentTo returns the segment from this boarding to the first later call at station
func (b Boarding) SegmentTo(station string) (Segment, bool) {
	for segment := range b.Segments() {
		if segment.To() == station {
			return segment, true
		}
	}
	return Segment{}, false
}

// Segment is travel aboard one run from a boarding stop to a later alighting stop
type Segment struct {
	Run         *timetable.TrainRun
	Board       int
	Alight      int
	ServiceDate time.Time
	Departure   time.Time
	Arrival     time.Time
}

func (s Segment) From() string {
	return s.Run.Stops[s.Board].Station
}

func (s Segment) To() string {
	return s.Run.Stops[s.Alight].Station
}

func (s Segment) Duration() time.Duration {
	return s.Arrival.Sub(s.Departure)
}

// Key identifies the segment for deduplication
func (s Segment) Key() SegmentKey {
	return SegmentKey{
		Run:         s.Run.ID,
		Board:       s.Board,
		Alight:      s.Alight,
		ServiceDate: s.ServiceDate.Unix(),
	}
}

type SegmentKey struct {
	Run         string
	Board       int
	Alight      int
	ServiceDate int64
}
