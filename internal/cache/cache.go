// Package cache provides the shared key-value store used by the
// popularity pipeline. The backend is Redis when configured, with an
// in-process store as fallback; callers must tolerate the store being
// unavailable entirely.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// Store is the cache boundary consumed by the popularity service. Any
// other error than ErrMiss from Get signals cache infrastructure failure
// and callers fall back to computing without the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushAll(ctx context.Context) error
	Close() error
}
