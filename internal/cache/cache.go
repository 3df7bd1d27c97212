// Package cache provides the request-deduplicating query cache. Keys are
// built by typed constructors rather than ad-hoc string concatenation, and
// every mutation enumerates exactly which keys it invalidates.
package cache

import (
	"time"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
)

// keySep separates key segments; it cannot appear in user ids or album keys.
const keySep = "\x1f"

// Key identifies one cached query: an operation plus its parameters.
type Key struct {
	raw string
}

func newKey(op string, args ...string) Key {
	raw := op
	for _, a := range args {
		raw += keySep + a
	}
	return Key{raw: raw}
}

// String returns the serialized key, mainly for logging.
func (k Key) String() string { return k.raw }

// Cache is a byte-value cache with JSON-encoded entries. A zero-size cache is
// a valid no-op: every Get misses and every Set is dropped.
type Cache struct {
	store *freecache.Cache
	ttl   int
}

// New creates a cache of sizeMB megabytes whose entries expire after ttl.
// sizeMB <= 0 disables caching.
func New(sizeMB int, ttl time.Duration) *Cache {
	if sizeMB <= 0 {
		return &Cache{}
	}
	return &Cache{
		store: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   max(int(ttl.Seconds()), 1),
	}
}

// Get decodes the cached value for key into dest. Returns false on miss or
// decode failure (a stale encoding is treated as a miss).
func (c *Cache) Get(key Key, dest any) bool {
	if c.store == nil {
		return false
	}
	raw, err := c.store.Get([]byte(key.raw))
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores value under key. Encoding failures drop the entry silently; the
// cache is an optimization, never a source of truth.
func (c *Cache) Set(key Key, value any) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.store.Set([]byte(key.raw), raw, c.ttl)
}

// Invalidate drops the entries for the given keys so dependent views refetch.
func (c *Cache) Invalidate(keys ...Key) {
	if c.store == nil {
		return
	}
	for _, key := range keys {
		c.store.Del([]byte(key.raw))
	}
}
