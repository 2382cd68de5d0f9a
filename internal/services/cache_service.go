package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"natours/pkg/cache"
	"natours/pkg/logger"
)

// CacheService is the cache surface repositories and middleware depend on.
// A nil CacheService disables caching.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

var ErrCacheMiss = cache.ErrCacheMiss

type cacheService struct {
	redis  *cache.RedisCache
	prefix string
	logger *logger.Logger
}

func NewCacheService(redis *cache.RedisCache, logger *logger.Logger) CacheService {
	return &cacheService{
		redis:  redis,
		prefix: "natours:",
		logger: logger,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	err := s.redis.Get(ctx, s.prefix+key, dest)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	return err
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.redis.Set(ctx, s.prefix+key, value, expiration); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache write failed")
		return err
	}
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.prefix + k
	}
	return s.redis.Delete(ctx, prefixed...)
}

func (s *cacheService) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return s.redis.IncrementWindow(ctx, s.prefix+key, window)
}

// memoryCache backs CacheService when redis is disabled. Only the counter
// operations are meaningful; Get always misses.
type memoryCache struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int64
	resetAt time.Time
}

func NewMemoryCache() CacheService {
	return &memoryCache{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (m *memoryCache) Get(context.Context, string, interface{}) error {
	return ErrCacheMiss
}

func (m *memoryCache) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.windows, k)
	}
	return nil
}

func (m *memoryCache) IncrementWindow(_ context.Context, key string, d time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		m.sweep(now)
		w = &window{resetAt: now.Add(d)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

// sweep drops expired windows so idle clients do not accumulate.
func (m *memoryCache) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
