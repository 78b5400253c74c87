package auth

import (
	"context"
	"sync"
	"time"
)

// DefaultExpirySkew is subtracted from a token's expiry when deciding
// whether it is still usable, so a token is never presented moments
// before it lapses.
const DefaultExpirySkew = 60 * time.Second

// CachedSource decorates a TokenSource with a mutex-guarded cache.
// A token is reused until it is within skew of its expiry; the refresh
// happens under the lock, so concurrent callers share a single refresh
// and never observe a torn token.
type CachedSource struct {
	inner TokenSource
	skew  time.Duration
	now   func() time.Time

	onRefresh func() // optional metrics hook

	mu  sync.Mutex
	tok Token
}

// CacheOption configures a CachedSource.
type CacheOption func(*CachedSource)

// WithExpirySkew overrides the refresh safety margin.
func WithExpirySkew(skew time.Duration) CacheOption {
	return func(c *CachedSource) { c.skew = skew }
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *CachedSource) { c.now = now }
}

// WithRefreshHook registers a callback invoked after every successful
// refresh.
func WithRefreshHook(fn func()) CacheOption {
	return func(c *CachedSource) { c.onRefresh = fn }
}

// NewCachedSource wraps inner with lazy, expiry-aware caching.
func NewCachedSource(inner TokenSource, opts ...CacheOption) *CachedSource {
	c := &CachedSource{
		inner: inner,
		skew:  DefaultExpirySkew,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the cached token, refreshing it first when absent or
// at/past its skew-adjusted expiry. A failed refresh leaves any previous
// token untouched and surfaces the source's error.
func (c *CachedSource) Token(ctx context.Context) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid() {
		return c.tok, nil
	}

	tok, err := c.inner.Token(ctx)
	if err != nil {
		return Token{}, err
	}

	c.tok = tok
	if c.onRefresh != nil {
		c.onRefresh()
	}
	return c.tok, nil
}

func (c *CachedSource) valid() bool {
	if c.tok.Value == "" {
		return false
	}
	return c.now().Before(c.tok.ExpiresOn.Add(-c.skew))
}
