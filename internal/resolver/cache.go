package resolver

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// catalogCache memoizes fetched lists per key. Concurrent misses for the same
// key share one fetch. Entries fetched before the last invalidation are not
// stored.
type catalogCache struct {
	mu         sync.Mutex
	entries    map[string]any
	generation uint64
	group      singleflight.Group
}

func newCatalogCache() *catalogCache {
	return &catalogCache{entries: make(map[string]any)}
}

func (c *catalogCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]any)
	c.generation++
	c.mu.Unlock()
}

func (c *catalogCache) lookup(key string) (any, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, c.generation, ok
}

func (c *catalogCache) store(key string, generation uint64, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation == c.generation {
		c.entries[key] = v
	}
}

// cached returns the list stored under key, fetching it on a miss. A nil cache
// always fetches. A shared fetch outlives the cancellation of the caller that
// started it; a cancelled caller stops waiting and gets ctx.Err().
func cached[T any](ctx context.Context, c *catalogCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return fetch(ctx)
	}
	if v, _, ok := c.lookup(key); ok {
		return v.(T), nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		_, generation, _ := c.lookup(key)
		v, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		c.store(key, generation, v)
		return v, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
