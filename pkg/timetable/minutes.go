package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the length of one railway day
const MinutesPerDay = 24 * 60

// Minutes counts the minutes after midnight of the day a train run starts.
// A stop reached on the second calendar day of a run is 1440 or more.
type Minutes int

// NoTime marks a missing arrival (run origin) or departure (run terminus)
const NoTime Minutes = -1

func (m Minutes) IsSet() bool {
	return m >= 0
}

// DayOffset is the number of midnights the run has passed when this time is reached
func (m Minutes) DayOffset() int {
	if !m.IsSet() {
		return 0
	}
	return int(m) / MinutesPerDay
}

// Clock returns the time of day without the day offset
func (m Minutes) Clock() (hour int, minute int) {
	clock := int(m) % MinutesPerDay
	return clock / 60, clock % 60
}

// At converts the value to an absolute timestamp for a run starting on serviceDate
func (m Minutes) At(serviceDate time.Time) time.Time {
	return serviceDate.Add(time.Duration(m) * time.Minute)
}

func (m Minutes) String() string {
	if !m.IsSet() {
		return "None"
	}
	hour, minute := m.Clock()
	if offset := m.DayOffset(); offset > 0 {
		return fmt.Sprintf("%02d:%02d+%d", hour, minute, offset)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseClock parses "HH:MM" or "HH:MM:SS" and places it on the given day of the run.
// Hours past 23 are accepted the way GTFS writes times after midnight.
// An empty value or "None" gives NoTime.
func ParseClock(value string, dayOffset int) (Minutes, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "none") {
		return NoTime, nil
	}

	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return NoTime, fmt.Errorf("invalid clock time %q", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 {
		return NoTime, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return NoTime, fmt.Errorf("invalid minute in %q", value)
	}
	if len(parts) == 3 {
		if second, err := strconv.Atoi(parts[2]); err != nil || second < 0 || second > 59 {
			return NoTime, fmt.Errorf("invalid second in %q", value)
		}
	}
	if dayOffset < 0 {
		return NoTime, fmt.Errorf("negative day offset %d", dayOffset)
	}

	return Minutes(dayOffset*MinutesPerDay + hour*60 + minute), nil
}
