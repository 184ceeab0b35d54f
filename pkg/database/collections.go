package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	StationsCollection  = "stations"
	TrainRunsCollection = "train_runs"
)

func createIndexes(ctx context.Context) {
	createIndex(ctx, StationsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
		},
	})

	createIndex(ctx, TrainRunsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "number", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "stops.station", Value: 1}},
		},
	})
}

func createIndex(ctx context.Context, collectionName string, indexes []mongo.IndexModel) {
	_, err := GetCollection(collectionName).Indexes().CreateMany(ctx, indexes, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Str("collection", collectionName).Msg("Creating Index")
	}
}
