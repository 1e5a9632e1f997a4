// Package querycache is a per-session cache of business API reads keyed by
// entity and parameters. A mutation invalidates every key of its entity so
// the next read goes back to the API.
package querycache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/faysalsarker-dev/piercing-cms/internal/observability/metrics"
	"golang.org/x/sync/singleflight"
)

// Key identifies one cached read.
type Key struct {
	Entity string
	Params string
}

// NewKey joins params into a stable key for entity.
func NewKey(entity string, params ...string) Key {
	return Key{Entity: entity, Params: strings.Join(params, "&")}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Entity
	}
	return k.Entity + "?" + k.Params
}

type entry struct {
	value   any
	expires time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]entry
	// generation is bumped per entity on invalidation so loads that started
	// earlier do not repopulate stale data.
	generation map[string]uint64
	epoch      uint64
	group      singleflight.Group
	ttl        time.Duration
	now        func() time.Time
	metrics    *metrics.ConsoleMetrics
}

// New builds a cache. ttl <= 0 keeps entries until invalidated.
func New(ttl time.Duration, m *metrics.ConsoleMetrics) *Cache {
	return &Cache{
		entries:    make(map[Key]entry),
		generation: make(map[string]uint64),
		ttl:        ttl,
		now:        time.Now,
		metrics:    m,
	}
}

// Fetch returns the cached value for key or runs load once, even when several
// callers ask for the same key concurrently.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	var zero T
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && (e.expires.IsZero() || c.now().Before(e.expires)) {
		c.mu.Unlock()
		c.metrics.ObserveCache(key.Entity, true)
		v, ok := e.value.(T)
		if !ok {
			return zero, fmt.Errorf("querycache: %s holds %T", key, e.value)
		}
		return v, nil
	}
	gen := c.generation[key.Entity]
	epoch := c.epoch
	c.mu.Unlock()
	c.metrics.ObserveCache(key.Entity, false)

	flight := fmt.Sprintf("%s#%d.%d", key, epoch, gen)
	res, err, _ := c.group.Do(flight, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.epoch == epoch && c.generation[key.Entity] == gen {
			e := entry{value: v}
			if c.ttl > 0 {
				e.expires = c.now().Add(c.ttl)
			}
			c.entries[key] = e
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s loaded %T", key, res)
	}
	return v, nil
}

// Invalidate drops every key of entity and returns how many were removed.
func (c *Cache) Invalidate(entity string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation[entity]++
	n := 0
	for k := range c.entries {
		if k.Entity == entity {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Clear empties the cache, used when a session is torn down.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[Key]entry)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
