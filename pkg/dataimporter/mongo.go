package dataimporter

import (
	"context"
	"fmt"

	"github.com/railconnect/railconnect/pkg/database"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultBatchSize = 500

type bulkWriter interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
}

// BatchWriter groups write models into unordered bulk writes of at most BatchSize
type BatchWriter struct {
	Name      string
	BatchSize int

	collection bulkWriter
	items      []mongo.WriteModel
	written    int
}

func NewBatchWriter(name string, collection bulkWriter, batchSize int) *BatchWriter {
	return &BatchWriter{
		Name:       name,
		BatchSize:  batchSize,
		collection: collection,
	}
}

func (b *BatchWriter) Add(ctx context.Context, item mongo.WriteModel) error {
	b.items = append(b.items, item)
	if len(b.items) >= b.BatchSize {
		return b.Flush(ctx)
	}
	return nil
}

func (b *BatchWriter) Flush(ctx context.Context) error {
	if len(b.items) == 0 {
		return nil
	}

	log.Debug().Str("collection", b.Name).Int("Length", len(b.items)).Msg("Bulk write")
	_, err := b.collection.BulkWrite(ctx, b.items, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk write %s: %w", b.Name, err)
	}

	b.written += len(b.items)
	b.items = b.items[:0]
	return nil
}

func (b *BatchWriter) Written() int {
	return b.written
}

func upsertModel(filter bson.M, document interface{}) (mongo.WriteModel, error) {
	bsonRep, err := bson.Marshal(bson.M{"$set": document})
	if err != nil {
		return nil, err
	}

	updateModel := mongo.NewUpdateOneModel()
	updateModel.SetFilter(filter)
	updateModel.SetUpdate(bsonRep)
	updateModel.SetUpsert(true)

	return updateModel, nil
}

// WriteSnapshot upserts every station and train run of the snapshot
func WriteSnapshot(ctx context.Context, db *mongo.Database, snapshot *timetable.Snapshot) error {
	stationsQueue := NewBatchWriter(database.StationsCollection, db.Collection(database.StationsCollection), defaultBatchSize)
	for _, station := range snapshot.Stations(0, snapshot.StationCount()) {
		model, err := upsertModel(bson.M{"code": station.Code}, station)
		if err != nil {
			return err
		}
		if err := stationsQueue.Add(ctx, model); err != nil {
			return err
		}
	}
	if err := stationsQueue.Flush(ctx); err != nil {
		return err
	}

	runsQueue := NewBatchWriter(database.TrainRunsCollection, db.Collection(database.TrainRunsCollection), defaultBatchSize)
	for _, run := range snapshot.Runs() {
		model, err := upsertModel(bson.M{"primaryidentifier": run.ID}, run)
		if err != nil {
			return err
		}
		if err := runsQueue.Add(ctx, model); err != nil {
			return err
		}
	}
	if err := runsQueue.Flush(ctx); err != nil {
		return err
	}

	log.Info().
		Int("stations", stationsQueue.Written()).
		Int("runs", runsQueue.Written()).
		Str("version", snapshot.Version()).
		Msg("Wrote timetable to MongoDB")

	return nil
}

// LoadFromMongo reads the stations and train_runs collections into a snapshot
func LoadFromMongo(ctx context.Context, db *mongo.Database) (*timetable.Snapshot, error) {
	stations := []*timetable.Station{}
	cursor, err := db.Collection(database.StationsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &stations); err != nil {
		return nil, err
	}

	runs := []*timetable.TrainRun{}
	cursor, err = db.Collection(database.TrainRunsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}

	return timetable.NewSnapshot(stations, runs)
}
