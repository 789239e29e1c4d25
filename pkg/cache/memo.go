package cache

import (
	"context"
	"time"

	"github.com/matzehuels/flowgraph/pkg/observability"
)

// Memo returns the value cached under key, or computes, stores and returns
// it. hit reports whether the value came from the cache. Cache failures are
// treated as misses and never fail the call; only compute's error is
// returned. keyType labels the key for the cache hooks.
func Memo(ctx context.Context, c Cache, key, keyType string, ttl time.Duration, compute func() ([]byte, error)) (data []byte, hit bool, err error) {
	hooks := observability.Cache()
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, keyType)
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, keyType)

	data, err = compute()
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return data, false, nil
}
