package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/inboxtally/internal/cache"
	"github.com/teemow/inboxtally/internal/logging"
)

// DefaultTTL is how long a cached classification stays valid.
const DefaultTTL = 14400 * time.Second

// Cache stores classifications in a cache.Store keyed by the exact prompt text.
type Cache struct {
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache wraps store. A zero ttl means DefaultTTL.
func NewCache(store cache.Store, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, ttl: ttl, logger: logger}
}

// TTL returns the expiry applied on Save.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Lookup returns the classification cached for prompt. A value that no longer
// decodes is reported as a miss so it gets recomputed and overwritten.
func (c *Cache) Lookup(ctx context.Context, prompt string) (Classification, bool, error) {
	raw, found, err := c.store.Get(ctx, prompt)
	if err != nil {
		return Classification{}, false, err
	}
	if !found {
		return Classification{}, false, nil
	}

	cl, err := Parse(raw)
	if err != nil {
		c.logger.Warn("discarding undecodable cache entry", logging.Err(err))
		return Classification{}, false, nil
	}
	return cl, true, nil
}

// Save stores cl under prompt with the cache TTL.
func (c *Cache) Save(ctx context.Context, prompt string, cl Classification) error {
	data, err := json.Marshal(cl)
	if err != nil {
		return fmt.Errorf("failed to encode classification: %w", err)
	}
	return c.store.Set(ctx, prompt, string(data), c.ttl)
}
