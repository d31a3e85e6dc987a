package membership

import (
	"context"
	"sync"
	"time"
)

// ClientClass distinguishes consuming clients by how aggressively they may
// cache resolutions. Desktop clients re-resolve within tens of seconds;
// constrained mobile clients hold on to a resolution for minutes.
type ClientClass string

const (
	ClientDesktop ClientClass = "desktop"
	ClientMobile  ClientClass = "mobile"
)

const (
	DesktopCacheTTL = 30 * time.Second
	MobileCacheTTL  = 3 * time.Minute
)

// CacheTTL returns the resolution cache TTL for a client class.
func CacheTTL(class ClientClass) time.Duration {
	if class == ClientMobile {
		return MobileCacheTTL
	}
	return DesktopCacheTTL
}

// ResolveFunc performs one resolution against the source of truth.
type ResolveFunc func(ctx context.Context) (Resolution, error)

// Cache is a process-local, time-boxed wrapper around a ResolveFunc. It holds
// the last resolution plus its timestamp; state-changing events (activation,
// logout) must force a refresh or call Invalidate.
type Cache struct {
	resolve ResolveFunc
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	last    Resolution
	fetched time.Time
	valid   bool
}

// NewCache wraps resolve with a TTL'd cache.
func NewCache(resolve ResolveFunc, ttl time.Duration) *Cache {
	return &Cache{resolve: resolve, ttl: ttl, now: time.Now}
}

// Get returns the cached resolution when it is younger than the TTL. force
// bypasses the cache regardless of age, re-resolves from source, and resets
// the timestamp. A failed refresh leaves any prior cached value untouched.
func (c *Cache) Get(ctx context.Context, force bool) (Resolution, error) {
	c.mu.Lock()
	if !force && c.valid && c.now().Sub(c.fetched) < c.ttl {
		res := c.last
		c.mu.Unlock()
		return res, nil
	}
	c.mu.Unlock()

	res, err := c.resolve(ctx)
	if err != nil {
		return Resolution{}, err
	}

	c.mu.Lock()
	c.last = res
	c.fetched = c.now()
	c.valid = true
	c.mu.Unlock()
	return res, nil
}

// Invalidate drops the cached resolution so the next Get re-resolves.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
