package dataimporter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type recordingCollection struct {
	batches [][]mongo.WriteModel
	err     error
}

func (r *recordingCollection) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	batch := make([]mongo.WriteModel, len(models))
	copy(batch, models)
	r.batches = append(r.batches, batch)
	return &mongo.BulkWriteResult{UpsertedCount: int64(len(models))}, nil
}

func TestBatchWriterFlushesInBatches(t *testing.T) {
	collection := &recordingCollection{}
	writer := NewBatchWriter("stations", collection, 2)

	for i := 0; i < 5; i++ {
		model, err := upsertModel(bson.M{"code": i}, bson.M{"code": i})
		require.NoError(t, err)
		require.NoError(t, writer.Add(context.Background(), model))
	}
	require.NoError(t, writer.Flush(context.Background()))
	require.NoError(t, writer.Flush(context.Background()))

	require.Len(t, collection.batches, 3)
	assert.Len(t, collection.batches[0], 2)
	assert.Len(t, collection.batches[2], 1)
	assert.Equal(t, 5, writer.Written())
}

func TestBatchWriterReturnsErrors(t *testing.T) {
	collection := &recordingCollection{err: errors.New("connection reset")}
	writer := NewBatchWriter("train_runs", collection, 1)

	model, err := upsertModel(bson.M{"primaryidentifier": "12952"}, bson.M{"number": "12952"})
	require.NoError(t, err)

	err = writer.Add(context.Background(), model)
	assert.ErrorContains(t, err, "train_runs")
	assert.Equal(t, 0, writer.Written())
}
