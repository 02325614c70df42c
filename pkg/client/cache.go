package client

import (
	"context"
	"net/url"
	"sync"
)

// QueryCache is an explicit read cache keyed by the deterministic key
// builder. One cache instance per process owns all cached approval reads;
// invalidation is always an explicit call, never a side effect of a command.
//
// Concurrent reads of the same key are deduplicated: only the first caller
// executes the fetch, the rest wait for its result.
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]any
	inflight map[string]*call
}

type call struct {
	done chan struct{}
	val  any
	err  error
}

// NewQueryCache creates an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries:  make(map[string]any),
		inflight: make(map[string]*call),
	}
}

// Invalidate removes every entry whose key has the given key as a tuple
// prefix and returns the number of entries dropped. Invalidate(AllKey())
// empties the cache.
func (c *QueryCache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for ks := range c.entries {
		if keyFromString(ks).HasPrefix(prefix) {
			delete(c.entries, ks)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cached returns the cached value for key, if present and of type T.
func Cached[T any](c *QueryCache, key Key) (T, bool) {
	var zero T
	c.mu.Lock()
	v, ok := c.entries[key.String()]
	c.mu.Unlock()
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Fetch returns the cached value for key or executes fn to produce it.
// Concurrent calls for the same key share a single fn execution. Failed
// fetches are not cached; every later call retries.
func Fetch[T any](ctx context.Context, c *QueryCache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	ks := key.String()

	c.mu.Lock()
	if v, ok := c.entries[ks]; ok {
		c.mu.Unlock()
		if typed, ok := v.(T); ok {
			return typed, nil
		}
		// A different type under the same key is a caller bug; refetch.
		c.mu.Lock()
	}
	if inflight, ok := c.inflight[ks]; ok {
		c.mu.Unlock()
		select {
		case <-inflight.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		if inflight.err != nil {
			return zero, inflight.err
		}
		if typed, ok := inflight.val.(T); ok {
			return typed, nil
		}
		return zero, nil
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[ks] = cl
	c.mu.Unlock()

	val, err := fn(ctx)

	c.mu.Lock()
	delete(c.inflight, ks)
	if err == nil {
		c.entries[ks] = val
	}
	c.mu.Unlock()

	cl.val, cl.err = val, err
	close(cl.done)

	if err != nil {
		return zero, err
	}
	return val, nil
}

func keyFromString(s string) Key {
	return Key{parts: splitKey(s)}
}

// splitKey reverses Key.String: split on the separator, then unescape each
// part. A part that fails to unescape is kept raw.
func splitKey(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '/' {
			raw := s[start:i]
			if p, err := url.PathUnescape(raw); err == nil {
				raw = p
			}
			parts = append(parts, raw)
			start = i + 1
		}
	}
	return parts
}
