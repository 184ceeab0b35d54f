package formats

import "github.com/railconnect/railconnect/pkg/timetable"

const (
	FormatDatameet = "datameet"
	FormatGTFS     = "gtfs"
	FormatMongoDB  = "mongodb"
)

// Format is a parsed timetable source that can be converted into the
// stations and train runs of a snapshot
type Format interface {
	Timetable() ([]*timetable.Station, []*timetable.TrainRun, error)
}
