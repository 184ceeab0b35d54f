// Package journeygraph exports the rail network into Neo4j for offline analysis.
// Stations become (:Station) nodes and every pair of consecutive calls of a run
// becomes a [:CALLS_NEXT] relationship.
package journeygraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/rs/zerolog/log"
)

const (
	clearCypher = `MATCH (s:Station) DETACH DELETE s`

	stationsCypher = `
		UNWIND $rows AS row
		MERGE (s:Station {code: row.code})
		SET s.name = row.name, s.city = row.city, s.state = row.state
	`

	callsCypher = `
		UNWIND $rows AS row
		MATCH (a:Station {code: row.from})
		MATCH (b:Station {code: row.to})
		MERGE (a)-[r:CALLS_NEXT {run: row.run}]->(b)
		SET r.train_number = row.train_number, r.minutes = row.minutes
	`
)

// Writer runs one write statement in its own transaction
type Writer interface {
	Write(ctx context.Context, cypher string, params map[string]any) error
}

type sessionWriter struct {
	session neo4j.SessionWithContext
}

// NewSessionWriter writes through managed transactions of a Neo4j session
func NewSessionWriter(session neo4j.SessionWithContext) Writer {
	return &sessionWriter{session: session}
}

func (w *sessionWriter) Write(ctx context.Context, cypher string, params map[string]any) error {
	_, err := w.session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

type Exporter struct {
	Writer    Writer
	BatchSize int

	// Clear removes every existing Station node first
	Clear bool
}

func (e *Exporter) Export(ctx context.Context, snapshot *timetable.Snapshot) error {
	if e.Clear {
		if err := e.Writer.Write(ctx, clearCypher, map[string]any{}); err != nil {
			return fmt.Errorf("clearing graph: %w", err)
		}
	}

	stations := StationRows(snapshot)
	if err := e.writeBatches(ctx, stationsCypher, stations); err != nil {
		return fmt.Errorf("writing stations: %w", err)
	}

	calls := CallRows(snapshot)
	if err := e.writeBatches(ctx, callsCypher, calls); err != nil {
		return fmt.Errorf("writing calls: %w", err)
	}

	log.Info().Int("stations", len(stations)).Int("calls", len(calls)).Msg("Exported network graph")

	return nil
}

func (e *Exporter) writeBatches(ctx context.Context, cypher string, rows []map[string]any) error {
	for _, batch := range batches(rows, e.BatchSize) {
		if err := e.Writer.Write(ctx, cypher, map[string]any{"rows": batch}); err != nil {
			return err
		}
	}
	return nil
}

func StationRows(snapshot *timetable.Snapshot) []map[string]any {
	stations := snapshot.Stations(0, snapshot.StationCount())

	rows := make([]map[string]any, 0, len(stations))
	for _, station := range stations {
		rows = append(rows, map[string]any{
			"code":  station.Code,
			"name":  station.Name,
			"city":  station.City,
			"state": station.State,
		})
	}
	return rows
}

// CallRows lists consecutive call pairs of every run. Minutes is the running
// time from departure to the next arrival and is left out when either is unknown.
func CallRows(snapshot *timetable.Snapshot) []map[string]any {
	var rows []map[string]any

	for _, run := range snapshot.Runs() {
		for i := 0; i+1 < len(run.Stops); i++ {
			from, to := run.Stops[i], run.Stops[i+1]

			row := map[string]any{
				"run":          run.ID,
				"train_number": run.Number,
				"from":         from.Station,
				"to":           to.Station,
				"minutes":      nil,
			}
			if from.Departure.IsSet() && to.Arrival.IsSet() {
				row["minutes"] = int64(to.Arrival - from.Departure)
			}
			rows = append(rows, row)
		}
	}

	return rows
}

func batches(rows []map[string]any, size int) [][]map[string]any {
	if size < 1 {
		size = 1
	}

	var result [][]map[string]any
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		result = append(result, rows[start:end])
	}
	return result
}
