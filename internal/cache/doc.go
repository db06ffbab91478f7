// Package cache provides the key/value stores used to remember model
// classifications between runs.
//
// Stores deal in plain strings with a per-entry time-to-live, the same
// contract as Redis GET / SETEX. A key that was never written and a key whose
// entry expired are both reported as a miss (found == false, err == nil).
// Failing to reach the backend is a distinct condition wrapping
// ErrUnavailable, so the caller can decide to carry on without caching.
//
// Two implementations are available:
//   - Redis: backed by go-redis, used in production
//   - Memory: process-local map with lazy expiry, for tests and offline runs
package cache
