package timetable

import (
	"errors"
	"fmt"
)

// ErrData is wrapped by every DataError so callers can test with errors.Is
var ErrData = errors.New("timetable data error")

// DataError reports a malformed or inconsistent timetable reference
type DataError struct {
	Run     string
	Station string
	Reason  string
}

func (e *DataError) Error() string {
	switch {
	case e.Run != "" && e.Station != "":
		return fmt.Sprintf("%s: run %s station %s: %s", ErrData, e.Run, e.Station, e.Reason)
	case e.Run != "":
		return fmt.Sprintf("%s: run %s: %s", ErrData, e.Run, e.Reason)
	case e.Station != "":
		return fmt.Sprintf("%s: station %s: %s", ErrData, e.Station, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", ErrData, e.Reason)
	}
}

func (e *DataError) Unwrap() error {
	return ErrData
}
