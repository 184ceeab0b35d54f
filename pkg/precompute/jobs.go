// Package precompute warms the route cache for the busiest station pairs.
// Jobs travel through an rmq queue so any number of workers can share the load.
package precompute

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/railconnect/railconnect/pkg/util"
)

const QueueName = "route-precompute"

const publishBatchSize = 500

// Job is the queue payload for one station pair on one date
type Job struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Criteria    string `json:"criteria,omitempty"`
	Switches    string `json:"switches,omitempty"`
}

// Request turns the job into a search request the same way /api/routes reads its query
func (j Job) Request(defaultSwitches []int) (routesearch.Request, error) {
	request := routesearch.Request{
		Origin:      j.Origin,
		Destination: j.Destination,
	}

	date, err := util.ParseDate(j.Date)
	if err != nil {
		return request, &routesearch.InvalidRequestError{Reason: err.Error()}
	}
	request.Date = date

	if request.Criterion, err = routesearch.ParseCriterion(j.Criteria); err != nil {
		return request, err
	}
	if request.Switches, err = routesearch.ParseSwitches(j.Switches, defaultSwitches); err != nil {
		return request, err
	}

	return request, nil
}

// Plan creates a job for every ordered pair of the n busiest stations on every date
func Plan(snapshot *timetable.Snapshot, n int, dates []time.Time, criteria string, switches string) []Job {
	stations := snapshot.BusiestStations(n)

	var jobs []Job
	for _, date := range dates {
		for _, origin := range stations {
			for _, destination := range stations {
				if origin.Code == destination.Code {
					continue
				}
				jobs = append(jobs, Job{
					Origin:      origin.Code,
					Destination: destination.Code,
					Date:        date.Format(util.YearMonthDayFormat),
					Criteria:    criteria,
					Switches:    switches,
				})
			}
		}
	}

	return jobs
}

// Dates lists every day from the start date until the ISO 8601 horizon has
// passed. The start date is always included.
func Dates(from time.Time, horizon string) ([]time.Time, error) {
	from = timetable.StartOfDay(from)
	until, err := util.ShiftDate(horizon, from)
	if err != nil {
		return nil, err
	}

	dates := []time.Time{from}
	for date := from.AddDate(0, 0, 1); date.Before(until); date = date.AddDate(0, 0, 1) {
		dates = append(dates, date)
	}
	return dates, nil
}

// Enqueue publishes the jobs in batches
func Enqueue(queue rmq.Queue, jobs []Job) error {
	payloads := make([][]byte, 0, publishBatchSize)

	flush := func() error {
		if len(payloads) == 0 {
			return nil
		}
		if err := queue.PublishBytes(payloads...); err != nil {
			return fmt.Errorf("publishing precompute jobs: %w", err)
		}
		payloads = payloads[:0]
		return nil
	}

	for _, job := range jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return err
		}
		payloads = append(payloads, payload)

		if len(payloads) == publishBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}
