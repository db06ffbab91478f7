package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is wrapped by errors caused by an unreachable backend.
var ErrUnavailable = errors.New("cache unavailable")

// Store is a string key/value store with expiry.
type Store interface {
	// Get returns the value for key. found is false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value. The entry
	// expires after ttl; ttl <= 0 keeps it until overwritten.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
