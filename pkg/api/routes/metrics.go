package routes

import "github.com/prometheus/client_golang/prometheus"

var (
	searchLatency = prometheus.NewSummary(prometheus.SummaryOpts{
		Name:       "railconnect_route_search_seconds",
		Help:       "Time spent answering route searches that missed the cache",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})
	searchCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railconnect_route_search_total",
		Help: "Number of route searches by outcome",
	}, []string{"outcome"})
)

const (
	outcomeOK       = "ok"
	outcomeCached   = "cached"
	outcomeInvalid  = "invalid"
	outcomeTimeout  = "timeout"
	outcomeCanceled = "canceled"
	outcomeError    = "error"
)

func init() {
	prometheus.MustRegister(searchLatency, searchCount)
}
