package metadata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

// DefaultCacheTTL is how long lookups (and misses) are remembered.
const DefaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	movie    *movie.Movie // nil for a cached miss
	cachedAt time.Time
}

// Cache wraps a Provider with a TTL cache keyed by normalized title and year.
// Only successes and ErrNotFound are cached; transient failures are not.
// Safe for concurrent use.
type Cache struct {
	next Provider
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache wraps next. A zero ttl uses DefaultCacheTTL.
func NewCache(next Provider, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Name returns the wrapped provider's name
func (c *Cache) Name() string {
	return c.next.Name()
}

// Lookup answers from the cache when possible and fills it otherwise.
func (c *Cache) Lookup(ctx context.Context, q Query) (*movie.Movie, error) {
	key := cacheKey(q.Title, q.Year)

	if entry, ok := c.get(key); ok {
		logger.IncrCounter("metadata.cache_hits")
		if entry.movie == nil {
			return nil, ErrNotFound
		}
		return entry.movie.Clone(), nil
	}
	logger.IncrCounter("metadata.cache_misses")

	m, err := c.next.Lookup(ctx, q)
	switch {
	case err == nil:
		c.set(key, m.Clone())
		return m, nil
	case errors.Is(err, ErrNotFound):
		c.set(key, nil)
	}
	return nil, err
}

func (c *Cache) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if c.now().Sub(entry.cachedAt) > c.ttl {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *Cache) set(key string, m *movie.Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{movie: m, cachedAt: c.now()}
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.cachedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Janitor calls CleanExpired every interval until ctx is canceled.
func (c *Cache) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.CleanExpired(); n > 0 {
				logger.Debug("Expired metadata cache entries removed", logger.Fields{"removed": n})
			}
			logger.SetGauge("metadata.cache_size", float64(c.Size()))
		}
	}
}

// Size returns the number of cached entries
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(title, year string) string {
	return normalizeTitle(title) + "|" + year
}
