package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/railconnect/railconnect/pkg/util"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var MongoGlobalInstance *MongoInstance

const defaultMongoConnectionString = "mongodb://localhost:27017/"
const defaultMongoDatabase = "railconnect"

// Connect opens the global MongoDB instance, retrying with exponential backoff
// until the server answers a ping or ctx expires
func Connect(ctx context.Context) error {
	env := util.Env(util.GetEnvironmentVariables())

	connectionString := env.String("MONGODB_CONNECTION", defaultMongoConnectionString)
	dbName := env.String("MONGODB_DATABASE", defaultMongoDatabase)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return fmt.Errorf("connecting to mongodb: %w", err)
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = time.Minute

	err = backoff.RetryNotify(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return client.Ping(pingCtx, nil)
	}, backoff.WithContext(retry, ctx), func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry", wait).Msg("MongoDB not reachable yet")
	})
	if err != nil {
		return fmt.Errorf("pinging mongodb: %w", err)
	}

	MongoGlobalInstance = &MongoInstance{
		Client:   client,
		Database: client.Database(dbName),
	}

	createIndexes(ctx)

	log.Info().Str("database", dbName).Msg("Connected to MongoDB")

	return nil
}

func GetCollection(collectionName string) *mongo.Collection {
	return MongoGlobalInstance.Database.Collection(collectionName)
}
