package cache

import (
	"context"
	"strings"
	"time"

	"github.com/typeset-tools/autofit/pkg/observability"
)

// instrumented forwards cache events to the registered observability hooks.
type instrumented struct {
	inner Cache
}

// Instrument wraps a cache so that hits, misses, and writes are reported to
// the registered CacheHooks. A nil inner cache instruments a NullCache.
func Instrument(inner Cache) Cache {
	if inner == nil {
		inner = NewNullCache()
	}
	return &instrumented{inner: inner}
}

// keyType extracts the entry-type prefix of a key for metrics labels.
func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func (c *instrumented) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

func (c *instrumented) Close() error {
	return c.inner.Close()
}

// Ensure instrumented implements Cache.
var _ Cache = (*instrumented)(nil)
