package precompute

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/railconnect/railconnect/pkg/routecache"
	"github.com/railconnect/railconnect/pkg/routeformat"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

var ErrNoTimetable = errors.New("no timetable loaded")

// Warmer is an rmq.BatchConsumer that runs the search for each job and
// stores the formatted response in the route cache
type Warmer struct {
	Source routesearch.SnapshotSource
	Engine *routesearch.Engine
	Cache  *routecache.Cache

	// Concurrency is how many searches of one batch run at once
	Concurrency int
}

// Warm searches one job unless the cache already holds it
func (w *Warmer) Warm(ctx context.Context, job Job) (bool, error) {
	snapshot := w.Source.Snapshot()
	if snapshot == nil {
		return false, ErrNoTimetable
	}

	request, err := job.Request(w.Engine.Options().DefaultSwitches)
	if err != nil {
		return false, err
	}

	query, err := w.Engine.Validate(snapshot, request)
	if err != nil {
		return false, err
	}

	_, cached, err := w.Cache.GetOrCompute(ctx, routecache.Key(snapshot.Version(), w.Engine.Options(), query), func() ([]byte, error) {
		result, err := w.Engine.Run(ctx, snapshot, query)
		if err != nil {
			return nil, err
		}
		return routeformat.Marshal(result)
	})

	return cached, err
}

func (w *Warmer) Consume(batch rmq.Deliveries) {
	startTime := time.Now()

	var warmed, skipped, failed atomic.Int64

	p := pool.New().WithMaxGoroutines(max(w.Concurrency, 1))
	for _, delivery := range batch {
		p.Go(func() {
			var job Job
			if err := json.Unmarshal([]byte(delivery.Payload()), &job); err != nil {
				log.Error().Err(err).Str("payload", delivery.Payload()).Msg("Failed to decode precompute job")
				failed.Add(1)
				reject(delivery)
				return
			}

			cached, err := w.Warm(context.Background(), job)
			if err != nil {
				log.Warn().Err(err).
					Str("origin", job.Origin).
					Str("destination", job.Destination).
					Str("date", job.Date).
					Msg("Precompute search failed")
				failed.Add(1)
				reject(delivery)
				return
			}

			if cached {
				skipped.Add(1)
			} else {
				warmed.Add(1)
			}
			if err := delivery.Ack(); err != nil {
				log.Error().Err(err).Msg("Failed to ack precompute job")
			}
		})
	}
	p.Wait()

	log.Info().
		Int64("warmed", warmed.Load()).
		Int64("cached", skipped.Load()).
		Int64("failed", failed.Load()).
		Dur("elapsed", time.Since(startTime)).
		Msg("Precompute batch done")
}

func reject(delivery rmq.Delivery) {
	if err := delivery.Reject(); err != nil {
		log.Error().Err(err).Msg("Failed to reject precompute job")
	}
}
