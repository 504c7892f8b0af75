// Package cache provides the shared key-value store backing the security
// detector's reputation counters and the IP blocklist. A Valkey node is
// used when configured so replicas share block state; otherwise a
// process-local fallback keeps the engine fully functional.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Incr atomically increments a counter, setting its TTL on first use.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Keys returns keys starting with the prefix. Intended for small,
	// bounded namespaces (the blocklist), not general scans.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
