package routesearch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"time"
)

// Options tune the search. FanOut bounds how many of the earliest usable
// trains are explored from each station at each stage, trading completeness
// for speed on dense networks.
type Options struct {
	MinTransfer time.Duration
	MaxLayover  time.Duration
	FanOut      int
	Limit       int
	Timeout     time.Duration

	DefaultSwitches []int

	// ExcludeDirectTrains stops connecting itineraries from using a train that
	// already runs direct between the origin and destination
	ExcludeDirectTrains bool
	// CollapseTrainCombinations keeps only the best itinerary per ordered list of train numbers
	CollapseTrainCombinations bool
	// When a direct train exists, connecting itineraries longer than this many
	// times the fastest direct are dropped. Zero disables the check.
	OneSwitchRatio float64
	TwoSwitchRatio float64

	Workers int
	// GraphCacheSize is the number of expanded travel dates kept between searches
	GraphCacheSize int
}

func DefaultOptions() Options {
	return Options{
		MinTransfer:               20 * time.Minute,
		MaxLayover:                12 * time.Hour,
		FanOut:                    25,
		Limit:                     250,
		Timeout:                   10 * time.Second,
		DefaultSwitches:           []int{0, 1},
		ExcludeDirectTrains:       true,
		CollapseTrainCombinations: true,
		OneSwitchRatio:            1.25,
		TwoSwitchRatio:            1.5,
		Workers:                   runtime.GOMAXPROCS(0),
		GraphCacheSize:            8,
	}
}

func (o Options) ratioFor(switches int) float64 {
	switch switches {
	case 1:
		return o.OneSwitchRatio
	case 2:
		return o.TwoSwitchRatio
	default:
		return 0
	}
}

// Fingerprint identifies the options that change search results. Workers,
// Timeout, GraphCacheSize and DefaultSwitches are left out as they do not.
func (o Options) Fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%d|%d|%t|%t|%g|%g",
		o.MinTransfer/time.Minute,
		o.MaxLayover/time.Minute,
		o.FanOut,
		o.Limit,
		o.ExcludeDirectTrains,
		o.CollapseTrainCombinations,
		o.OneSwitchRatio,
		o.TwoSwitchRatio,
	)))
	return hex.EncodeToString(sum[:])[:12]
}
