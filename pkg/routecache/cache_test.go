package routecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, expiration string) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	routeCache, err := New(client, expiration)
	require.NoError(t, err)

	return routeCache, server
}

func TestKey(t *testing.T) {
	query := &routesearch.Query{
		Origin:      &timetable.Station{Code: "NDLS"},
		Destination: &timetable.Station{Code: "MMCT"},
		Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Criterion:   routesearch.Fastest,
		Switches:    []int{0, 1},
	}

	options := routesearch.DefaultOptions()
	key := Key("abc", options, query)
	assert.Equal(t, "railconnect:routes:abc:"+options.Fingerprint()+":NDLS:MMCT:2026-03-14:fastest:0,1", key)

	// Settings that do not change results share the key
	options.Workers = 1
	options.Timeout = time.Minute
	assert.Equal(t, key, Key("abc", options, query))

	// Settings that do change results get their own key
	options.MinTransfer = 45 * time.Minute
	assert.NotEqual(t, key, Key("abc", options, query))

	options = routesearch.DefaultOptions()
	options.FanOut = 5
	assert.NotEqual(t, key, Key("abc", options, query))

	options = routesearch.DefaultOptions()
	options.TwoSwitchRatio = 2
	assert.NotEqual(t, key, Key("abc", options, query))
}

func TestSetAndGet(t *testing.T) {
	routeCache, server := newTestCache(t, "PT6H")
	ctx := context.Background()

	_, found := routeCache.Get(ctx, "missing")
	assert.False(t, found)

	require.NoError(t, routeCache.Set(ctx, "key", []byte(`{"routes":[]}`)))

	body, found := routeCache.Get(ctx, "key")
	require.True(t, found)
	assert.JSONEq(t, `{"routes":[]}`, string(body))
	assert.Equal(t, 6*time.Hour, server.TTL("key"))

	server.FastForward(7 * time.Hour)
	_, found = routeCache.Get(ctx, "key")
	assert.False(t, found)
}

func TestGetOrCompute(t *testing.T) {
	routeCache, _ := newTestCache(t, "P1D")
	ctx := context.Background()

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte(`{"routes":[1]}`), nil
	}

	body, cached, err := routeCache.GetOrCompute(ctx, "pair", compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, `{"routes":[1]}`, string(body))

	body, cached, err = routeCache.GetOrCompute(ctx, "pair", compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, `{"routes":[1]}`, string(body))
	assert.Equal(t, 1, calls)
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	routeCache, server := newTestCache(t, "P1D")

	_, _, err := routeCache.GetOrCompute(context.Background(), "pair", func() ([]byte, error) {
		return nil, errors.New("search timed out")
	})
	assert.Error(t, err)
	assert.False(t, server.Exists("pair"))
}

func TestNewRejectsBadExpiration(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	_, err := New(client, "tomorrow")
	assert.Error(t, err)
}
