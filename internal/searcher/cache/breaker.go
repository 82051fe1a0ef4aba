package cache

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
)

// breakerStore short-circuits a failing store so that searches stop paying
// the Redis timeout on every request. Misses do not count as failures.
type breakerStore struct {
	store Store
	cb    *resilience.CircuitBreaker
}

// WithBreaker wraps store in a circuit breaker configured by cfg.
func WithBreaker(store Store, cfg resilience.CircuitBreakerConfig) Store {
	cfg.IsFailure = func(err error) bool {
		return err != nil && !pkgredis.IsNilError(err)
	}
	return &breakerStore{store: store, cb: resilience.NewCircuitBreaker("query-cache", cfg)}
}

func (b *breakerStore) Get(ctx context.Context, key string) (string, error) {
	return resilience.Call(b.cb, func() (string, error) {
		return b.store.Get(ctx, key)
	})
}

func (b *breakerStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return b.cb.Execute(func() error {
		return b.store.Set(ctx, key, value, ttl)
	})
}

// FlushByPattern bypasses the breaker: an explicit invalidation should
// always reach the store.
func (b *breakerStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	return b.store.FlushByPattern(ctx, pattern)
}
