package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

const keyPrefix = "search:"

// Store is the subset of *pkgredis.Client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache caches ranked results per normalized query and status filter.
// Every index mutation bumps a generation that is part of the key, so
// entries written before the mutation are never read again and expire by
// TTL.
type QueryCache struct {
	store      Store
	ttl        time.Duration
	group      singleflight.Group
	metrics    *metrics.Metrics
	logger     *slog.Logger
	generation atomic.Uint64
	hits       atomic.Int64
	misses     atomic.Int64
}

func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query, filter string) ([]ranker.ScoredDoc, bool) {
	return c.lookup(ctx, c.buildKey(c.generation.Load(), query, filter))
}

func (c *QueryCache) Set(ctx context.Context, query, filter string, result []ranker.ScoredDoc) {
	c.save(ctx, c.buildKey(c.generation.Load(), query, filter), result)
}

// GetOrCompute returns the cached result or runs computeFn once per key
// across concurrent callers. The bool reports a cache hit. Errors are not
// cached, and neither is a result whose generation moved on while it was
// being computed. computeFn gets a context detached from the caller's
// cancellation since its result is shared by every waiter.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query, filter string,
	computeFn func(ctx context.Context) ([]ranker.ScoredDoc, error),
) ([]ranker.ScoredDoc, bool, error) {
	gen := c.generation.Load()
	key := c.buildKey(gen, query, filter)
	if result, ok := c.lookup(ctx, key); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)
		result, err := computeFn(shared)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() != gen {
			c.logger.Debug("index changed during search, result not cached", "key", key)
			return result, nil
		}
		c.save(shared, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]ranker.ScoredDoc), false, nil
}

func (c *QueryCache) lookup(ctx context.Context, key string) ([]ranker.ScoredDoc, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		switch {
		case pkgredis.IsNilError(err):
		case errors.Is(err, resilience.ErrCircuitOpen):
			c.logger.Debug("cache bypassed", "key", key)
		default:
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result []ranker.ScoredDoc
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.CacheHit()
	c.logger.Debug("cache hit", "key", key)
	return result, true
}

func (c *QueryCache) save(ctx context.Context, key string, result []ranker.ScoredDoc) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Bump makes every existing entry unreachable.
func (c *QueryCache) Bump() {
	c.generation.Add(1)
}

// Invalidate deletes every cached entry from the store.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	c.Bump()
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	c.metrics.CacheMiss()
}

func (c *QueryCache) buildKey(gen uint64, query, filter string) string {
	raw := fmt.Sprintf("%d|%s|%s", gen, filter, normalizeQuery(query))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery sorts and deduplicates the query tokens. Plus and minus
// words keep their marker, so equal token sets always rank the same.
func normalizeQuery(query string) string {
	var tokens []string
	for w := range tokenizer.Words(query) {
		tokens = append(tokens, w)
	}
	slices.Sort(tokens)
	return strings.Join(slices.Compact(tokens), " ")
}
