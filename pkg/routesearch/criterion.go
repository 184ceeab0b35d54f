package routesearch

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

type Criterion string

const (
	Fastest        Criterion = "fastest"
	FewestSwitches Criterion = "fewest_switches"
	Cheapest       Criterion = "cheapest"
)

// MaxSwitches is the most changes of train an itinerary may have
const MaxSwitches = 2

// ParseCriterion accepts the query parameter form. Empty means fastest.
// Cheapest parses but is rejected by the engine as there is no fare data.
func ParseCriterion(value string) (Criterion, error) {
	switch criterion := Criterion(strings.ToLower(strings.TrimSpace(value))); criterion {
	case "":
		return Fastest, nil
	case Fastest, FewestSwitches, Cheapest:
		return criterion, nil
	default:
		return "", invalidRequest("unsupported criteria %q", value)
	}
}

// ParseSwitches reads a comma separated list such as "0,1", or "all" for every
// supported switch count. An empty value gives fallback.
func ParseSwitches(value string, fallback []int) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return slices.Clone(fallback), nil
	}
	if strings.EqualFold(value, "all") {
		return []int{0, 1, 2}, nil
	}

	var switches []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > MaxSwitches {
			return nil, invalidRequest("switches must be between 0 and %d, got %q", MaxSwitches, part)
		}
		if !slices.Contains(switches, n) {
			switches = append(switches, n)
		}
	}
	if len(switches) == 0 {
		return nil, invalidRequest("no switch counts given in %q", value)
	}
	slices.Sort(switches)

	return switches, nil
}

// FormatSwitches is the inverse of ParseSwitches for a normalised list
func FormatSwitches(switches []int) string {
	parts := make([]string, len(switches))
	for i, n := range switches {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
