package redis_client

import (
	"context"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/cenkalti/backoff/v4"
	"github.com/railconnect/railconnect/pkg/util"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Client *redis.Client
var QueueConnection rmq.Connection

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

func Connect(ctx context.Context) error {
	env := util.Env(util.GetEnvironmentVariables())

	address := env.String("REDIS_ADDRESS", defaultConnectionAddress)
	password := env.String("REDIS_PASSWORD", defaultConnectionPassword)
	database, err := env.Int("REDIS_DATABASE", defaultDatabase)
	if err != nil {
		return fmt.Errorf("RAILCONNECT_REDIS_DATABASE: %w", err)
	}

	Client = redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = time.Minute

	err = backoff.RetryNotify(func() error {
		return Client.Ping(ctx).Err()
	}, backoff.WithContext(retry, ctx), func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry", wait).Msg("Redis not reachable yet")
	})
	if err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}

	QueueConnection, err = rmq.OpenConnectionWithRedisClient("railconnect", Client, nil)
	if err != nil {
		return err
	}

	log.Info().Str("address", address).Int("database", database).Msg("Connected to Redis")

	return nil
}
