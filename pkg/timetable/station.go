package timetable

import "strings"

type Station struct {
	Code  string `json:"code" bson:"code"`
	Name  string `json:"name" bson:"name"`
	City  string `json:"city" bson:"city"`
	State string `json:"state" bson:"state"`
}

// NormaliseCode gives the canonical upper case form of a station code
func NormaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Station) matchesText(query string) bool {
	return strings.Contains(strings.ToLower(s.Name), query) ||
		(s.City != "" && strings.Contains(strings.ToLower(s.City), query))
}
