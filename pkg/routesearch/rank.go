package routesearch

import (
	"strings"

	"golang.org/x/exp/slices"
)

// compare gives a total order so identical searches return identical lists
func compare(criterion Criterion, a Itinerary, b Itinerary) int {
	switch criterion {
	case FewestSwitches:
		if c := a.Switches() - b.Switches(); c != 0 {
			return c
		}
		if c := compareDuration(a, b); c != 0 {
			return c
		}
	default:
		if c := compareDuration(a, b); c != 0 {
			return c
		}
		if c := a.Switches() - b.Switches(); c != 0 {
			return c
		}
	}

	if c := a.Departure().Compare(b.Departure()); c != 0 {
		return c
	}
	if c := strings.Compare(a.TrainNumbers(), b.TrainNumbers()); c != 0 {
		return c
	}
	return strings.Compare(a.Key(), b.Key())
}

func compareDuration(a Itinerary, b Itinerary) int {
	switch da, db := a.Duration(), b.Duration(); {
	case da < db:
		return -1
	case da > db:
		return 1
	default:
		return 0
	}
}

func rank(criterion Criterion, itineraries []Itinerary) {
	slices.SortFunc(itineraries, func(a, b Itinerary) int {
		return compare(criterion, a, b)
	})
}

// dedupe drops repeated segment lists. With collapse set only the best
// itinerary per train number sequence survives. Input must already be ranked.
func dedupe(itineraries []Itinerary, collapse bool) []Itinerary {
	seen := map[string]bool{}
	result := itineraries[:0]

	for _, itinerary := range itineraries {
		key := itinerary.Key()
		if collapse {
			key = itinerary.TrainNumbers()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, itinerary)
	}

	return result
}
