// Package routecache keeps formatted route search responses in Redis so
// repeated searches for the same journey skip the search engine.
package routecache

import (
	"context"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/util"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "railconnect:routes"

type Cache struct {
	Cache *cache.Cache[string]

	// Expiration is an ISO 8601 duration measured from the time of writing
	Expiration string
}

func New(client redisstore.RedisClientInterface, expiration string) (*Cache, error) {
	if _, err := util.ISODuration(expiration, time.Now()); err != nil {
		return nil, err
	}

	redisStore := redisstore.NewRedis(client)

	return &Cache{
		Cache:      cache.New[string](redisStore),
		Expiration: expiration,
	}, nil
}

// Key identifies a search by timetable version, search options and normalised query
func Key(version string, options routesearch.Options, query *routesearch.Query) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s:%s",
		keyPrefix,
		version,
		options.Fingerprint(),
		query.Origin.Code,
		query.Destination.Code,
		query.Date.Format(util.YearMonthDayFormat),
		query.Criterion,
		routesearch.FormatSwitches(query.Switches),
	)
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.Cache.Get(ctx, key)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Route cache miss")
		return nil, false
	}
	return []byte(value), true
}

func (c *Cache) Set(ctx context.Context, key string, body []byte) error {
	expiration, err := util.ISODuration(c.Expiration, time.Now())
	if err != nil {
		return err
	}
	return c.Cache.Set(ctx, key, string(body), store.WithExpiration(expiration))
}

// GetOrCompute returns the cached body for key, or calls compute and stores
// its result. A failed write is logged and does not fail the request.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func() ([]byte, error)) ([]byte, bool, error) {
	if body, found := c.Get(ctx, key); found {
		return body, true, nil
	}

	body, err := compute()
	if err != nil {
		return nil, false, err
	}

	if err := c.Set(ctx, key, body); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Route cache write failed")
	}

	return body, false, nil
}
