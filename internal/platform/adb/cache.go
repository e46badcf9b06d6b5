package adb

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/droidtile/internal/model"
)

// listingCache holds the last parsed stack list for a short TTL so that
// several displays reconciling at once share one `am stack list` call.
type listingCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	windows []model.Window
	raw     string
	stamp   time.Time
	valid   bool
}

// newListingCache creates a new cache. A ttl of 0 disables caching.
func newListingCache(ttl time.Duration) *listingCache {
	return &listingCache{ttl: ttl, now: time.Now}
}

// get returns the cached listing if within TTL, otherwise calls load.
func (c *listingCache) get(ctx context.Context, load func(context.Context) (string, []model.Window, error)) (string, []model.Window, error) {
	if c.ttl > 0 {
		c.mu.Lock()
		if c.valid && c.now().Sub(c.stamp) < c.ttl {
			raw, windows := c.raw, c.windows
			c.mu.Unlock()
			return raw, windows, nil
		}
		c.mu.Unlock()
	}

	raw, windows, err := load(ctx)
	if err != nil {
		return "", nil, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.raw, c.windows, c.stamp, c.valid = raw, windows, c.now(), true
		c.mu.Unlock()
	}
	return raw, windows, nil
}

// invalidate drops the cached listing. Called after every mutation.
func (c *listingCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.windows = nil
	c.raw = ""
}
