package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/config"
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTableKey(t *testing.T) {
	all := buildTableKey(domain.TableQuery{RunID: 4, Table: domain.TableStoreAlerts})
	assert.Equal(t, "signals:table:4:store_alerts:all", all)

	a := buildTableKey(domain.TableQuery{RunID: 4, Table: domain.TableStoreAlerts, StoreIDs: []string{"S2", "S1"}})
	b := buildTableKey(domain.TableQuery{RunID: 4, Table: domain.TableStoreAlerts, StoreIDs: []string{"S1", " S2"}})
	assert.Equal(t, a, b)
	assert.NotEqual(t, all, a)

	byProduct := buildTableKey(domain.TableQuery{RunID: 4, Table: domain.TableStoreAlerts, ProductIDs: []string{"S1", "S2"}})
	assert.NotEqual(t, a, byProduct)

	otherRun := buildTableKey(domain.TableQuery{RunID: 5, Table: domain.TableStoreAlerts, StoreIDs: []string{"S1", "S2"}})
	assert.NotEqual(t, a, otherRun)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisPassword: "pw", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://cache:6380/1"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestNewSignalsCacheDisabledIsNoop(t *testing.T) {
	c, err := NewSignalsCache(context.Background(), config.CacheConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	q := domain.TableQuery{RunID: 1, Table: domain.TableProductAlerts}
	require.NoError(t, c.SetTable(ctx, q, json.RawMessage(`[]`)))

	_, ok, err := c.GetTable(ctx, q)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.InvalidateAll(ctx))
	assert.NoError(t, c.Close())
}

func TestRedisSignalsCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	c := NewRedisSignalsCache(client, 0)
	defer c.Close()

	_, ok, err := c.GetTable(context.Background(), domain.TableQuery{RunID: 1, Table: domain.TableProductAlerts})
	assert.False(t, ok)
	assert.ErrorContains(t, err, "redis get failed")
}
