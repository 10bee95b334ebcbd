// Package cache provides the key-value stores computed results are kept in.
package cache

import (
	"context"
	"time"
)

// Store is a byte-valued key-value store with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
