// Package cache provides byte-oriented caches for memoizing expensive
// workflow operations such as validation reports and rendered diagrams.
//
// Three backends implement [Cache]:
//   - [NullCache] never stores anything (caching disabled, tests)
//   - [FileCache] keeps entries on disk for the CLI
//   - [RedisCache] shares entries between API server instances
//
// Keys are built by a [Keyer] from content hashes, so identical payloads map
// to the same entry regardless of where they came from.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys.
//
// Get reports a miss with ok == false and a nil error. A ttl of zero in Set
// means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
