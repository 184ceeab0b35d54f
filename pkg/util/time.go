package util

import (
	"fmt"
	"time"

	iso8601 "github.com/senseyeio/duration"
)

const YearMonthDayFormat = "2006-01-02"

// ParseDate reads a YYYY-MM-DD calendar date as midnight UTC. Railway dates carry no time zone.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(YearMonthDayFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return date, nil
}

// ISODuration converts an ISO 8601 duration such as P1D or PT30M into the
// length it has when applied from the given time
func ISODuration(value string, from time.Time) (time.Duration, error) {
	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q: %w", value, err)
	}
	return duration.Shift(from).Sub(from), nil
}

// ShiftDate applies an ISO 8601 duration to a date
func ShiftDate(value string, from time.Time) (time.Time, error) {
	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO 8601 duration %q: %w", value, err)
	}
	return duration.Shift(from), nil
}
