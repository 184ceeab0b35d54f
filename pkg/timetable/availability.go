package timetable

import (
	"strings"
	"time"
)

// YearMonthDayFormat is the layout used for Date and DateRange rule values
const YearMonthDayFormat = "2006-01-02"

type Availability struct {
	Match          []AvailabilityRule `json:"match,omitempty" bson:"match,omitempty"`                   // Must match at least one
	MatchSecondary []AvailabilityRule `json:"matchsecondary,omitempty" bson:"matchsecondary,omitempty"` // Must match at least one if exists
	Condition      []AvailabilityRule `json:"condition,omitempty" bson:"condition,omitempty"`           // Must match all
	Exclude        []AvailabilityRule `json:"exclude,omitempty" bson:"exclude,omitempty"`               // Must not match one
}

type AvailabilityRule struct {
	Type        AvailabilityRecordType `json:"type" bson:"type"`
	Value       string                 `json:"value,omitempty" bson:"value,omitempty"`
	Description string                 `json:"description,omitempty" bson:"description,omitempty"`
}

type AvailabilityRecordType string

const (
	AvailabilityDayOfWeek AvailabilityRecordType = "DayOfWeek"
	AvailabilityDate      AvailabilityRecordType = "Date"
	AvailabilityDateRange AvailabilityRecordType = "DateRange"
	AvailabilityMatchAll  AvailabilityRecordType = "MatchAll"
)

// Daily is the calendar of a run that operates every day
func Daily() *Availability {
	return &Availability{
		Match: []AvailabilityRule{{Type: AvailabilityMatchAll}},
	}
}

// MatchDate evaluates the calendar for a run starting on date.
// A nil calendar runs every day. Explicit Date rules in Match are added days
// and bypass Condition, the same way GTFS calendar_dates add service outside
// the calendar range.
func (a *Availability) MatchDate(date time.Time) bool {
	if a == nil {
		return true
	}

	for _, rule := range a.Exclude {
		if rule.MatchDate(date) {
			return false
		}
	}

	for _, rule := range a.Match {
		if rule.Type == AvailabilityDate && rule.MatchDate(date) {
			return true
		}
	}

	for _, rule := range a.Condition {
		if !rule.MatchDate(date) {
			return false
		}
	}

	if !anyRuleMatches(a.Match, date) {
		return false
	}

	if len(a.MatchSecondary) > 0 && !anyRuleMatches(a.MatchSecondary, date) {
		return false
	}

	return true
}

func anyRuleMatches(rules []AvailabilityRule, date time.Time) bool {
	for _, rule := range rules {
		if rule.MatchDate(date) {
			return true
		}
	}
	return false
}

func (r AvailabilityRule) MatchDate(date time.Time) bool {
	switch r.Type {
	case AvailabilityMatchAll:
		return true
	case AvailabilityDayOfWeek:
		return strings.EqualFold(date.Weekday().String(), r.Value)
	case AvailabilityDate:
		return date.Format(YearMonthDayFormat) == r.Value
	case AvailabilityDateRange:
		from, to, found := strings.Cut(r.Value, ":")
		if !found {
			return false
		}
		day := date.Format(YearMonthDayFormat)
		// ISO dates compare correctly as strings
		return day >= from && day <= to
	default:
		return false
	}
}
