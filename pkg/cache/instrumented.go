package cache

import (
	"context"
	"time"

	"github.com/matzehuels/clusterview/pkg/observability"
)

// Instrumented reports hits, misses, and writes of an inner cache to the
// registered [observability.CacheHooks] under keyType.
type Instrumented struct {
	inner   Cache
	keyType string
}

// NewInstrumented wraps inner.
func NewInstrumented(inner Cache, keyType string) *Instrumented {
	return &Instrumented{inner: inner, keyType: keyType}
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, c.keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, c.keyType)
	}
	return data, ok, nil
}

func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.inner.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.keyType, len(data))
	return nil
}

func (c *Instrumented) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

func (c *Instrumented) Close() error { return c.inner.Close() }

var _ Cache = (*Instrumented)(nil)
