package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/retail-signals/backend-go/internal/config"
	"github.com/andresuchdata/retail-signals/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	signalsKeyPrefix     = "signals:"
	signalsLatestRunKey  = signalsKeyPrefix + "latest_run"
	signalsTableKeyPart  = signalsKeyPrefix + "table"
	signalsScanBatchSize = 100
)

// SignalsCache caches the latest run and encoded table payloads.
type SignalsCache interface {
	GetLatestRun(ctx context.Context) (*domain.SignalRun, bool, error)
	SetLatestRun(ctx context.Context, run *domain.SignalRun) error
	GetTable(ctx context.Context, q domain.TableQuery) (json.RawMessage, bool, error)
	SetTable(ctx context.Context, q domain.TableQuery, payload json.RawMessage) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisSignalsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

type noopSignalsCache struct{}

// NewSignalsCache returns a Redis-backed cache, or a no-op cache when caching is disabled.
func NewSignalsCache(ctx context.Context, cfg config.CacheConfig) (SignalsCache, error) {
	if !cfg.Enabled {
		return &noopSignalsCache{}, nil
	}

	client, ttl, err := newRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisSignalsCache(client, ttl), nil
}

// NewRedisSignalsCache wraps an existing client.
func NewRedisSignalsCache(client redis.UniversalClient, ttl time.Duration) SignalsCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisSignalsCache{client: client, ttl: ttl}
}

func NewNoopSignalsCache() SignalsCache {
	return &noopSignalsCache{}
}

func (c *redisSignalsCache) GetLatestRun(ctx context.Context) (*domain.SignalRun, bool, error) {
	payload, ok, err := c.get(ctx, signalsLatestRunKey)
	if err != nil || !ok {
		return nil, false, err
	}

	var run domain.SignalRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, false, fmt.Errorf("decode latest run cache: %w", err)
	}
	return &run, true, nil
}

func (c *redisSignalsCache) SetLatestRun(ctx context.Context, run *domain.SignalRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode latest run cache: %w", err)
	}
	return c.set(ctx, signalsLatestRunKey, payload)
}

func (c *redisSignalsCache) GetTable(ctx context.Context, q domain.TableQuery) (json.RawMessage, bool, error) {
	payload, ok, err := c.get(ctx, buildTableKey(q))
	if err != nil || !ok {
		return nil, false, err
	}
	return json.RawMessage(payload), true, nil
}

func (c *redisSignalsCache) SetTable(ctx context.Context, q domain.TableQuery, payload json.RawMessage) error {
	return c.set(ctx, buildTableKey(q), payload)
}

func (c *redisSignalsCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, signalsKeyPrefix, signalsScanBatchSize)
}

func (c *redisSignalsCache) Close() error {
	return c.client.Close()
}

func (c *redisSignalsCache) get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return payload, true, nil
}

func (c *redisSignalsCache) set(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopSignalsCache) GetLatestRun(ctx context.Context) (*domain.SignalRun, bool, error) {
	return nil, false, nil
}

func (n *noopSignalsCache) SetLatestRun(ctx context.Context, run *domain.SignalRun) error {
	return nil
}

func (n *noopSignalsCache) GetTable(ctx context.Context, q domain.TableQuery) (json.RawMessage, bool, error) {
	return nil, false, nil
}

func (n *noopSignalsCache) SetTable(ctx context.Context, q domain.TableQuery, payload json.RawMessage) error {
	return nil
}

func (n *noopSignalsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopSignalsCache) Close() error {
	return nil
}

// buildTableKey is stable under the order of the filter values.
func buildTableKey(q domain.TableQuery) string {
	return fmt.Sprintf("%s:%d:%s:%s", signalsTableKeyPart, q.RunID, q.Table, tableFilterHash(q))
}

func tableFilterHash(q domain.TableQuery) string {
	parts := []string{}

	if len(q.ProductIDs) > 0 {
		parts = append(parts, "product_ids="+joinStrings(q.ProductIDs))
	}
	if len(q.StoreIDs) > 0 {
		parts = append(parts, "store_ids="+joinStrings(q.StoreIDs))
	}

	if len(parts) == 0 {
		return "all"
	}

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(c[i])
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
