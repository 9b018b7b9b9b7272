// Package ratelimit enforces a per-client cool-down between accepted contact submissions.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultWindow is the cool-down applied when no window is configured.
const DefaultWindow = 30 * time.Second

// Cooldown remembers the last accepted instant per client identifier and rejects
// submissions arriving before the window has elapsed. The zero value is not usable;
// construct it with NewCooldown.
type Cooldown struct {
	mu     sync.Mutex
	last   map[string]time.Time
	window time.Duration
	clock  func() time.Time
}

// Option customises a Cooldown.
type Option func(*Cooldown)

// WithClock overrides the time source used by Allow and the janitor.
func WithClock(clock func() time.Time) Option {
	return func(c *Cooldown) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCooldown constructs a limiter. A non-positive window disables limiting.
func NewCooldown(window time.Duration, opts ...Option) *Cooldown {
	c := &Cooldown{
		last:   make(map[string]time.Time),
		window: window,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window reports the configured cool-down.
func (c *Cooldown) Window() time.Duration {
	return c.window
}

// Allow is CheckAndRecord evaluated at the limiter's clock.
func (c *Cooldown) Allow(clientID string) bool {
	return c.CheckAndRecord(clientID, c.clock())
}

// CheckAndRecord reports whether clientID may submit at now. An accepted call records now
// as the client's last accepted instant; a rejected call leaves the record untouched, so
// retries are always judged against the original acceptance.
func (c *Cooldown) CheckAndRecord(clientID string, now time.Time) bool {
	if c.window <= 0 {
		return true
	}
	key := normalizeKey(clientID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.last[key]; ok && now.Sub(last) < c.window {
		return false
	}
	c.last[key] = now
	return true
}

// RetryAfter returns how long clientID still has to wait at now. Zero means a submission
// would be accepted.
func (c *Cooldown) RetryAfter(clientID string, now time.Time) time.Duration {
	if c.window <= 0 {
		return 0
	}
	key := normalizeKey(clientID)

	c.mu.Lock()
	last, ok := c.last[key]
	c.mu.Unlock()

	if !ok {
		return 0
	}
	if remaining := c.window - now.Sub(last); remaining > 0 {
		return remaining
	}
	return 0
}

// Sweep drops clients whose window has elapsed at now and returns how many were removed.
func (c *Cooldown) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, last := range c.last {
		if now.Sub(last) >= c.window {
			delete(c.last, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}

// StartJanitor sweeps stale entries every interval until ctx is cancelled.
func (c *Cooldown) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 || c.window <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep(c.clock())
			}
		}
	}()
}

func normalizeKey(clientID string) string {
	key := strings.TrimSpace(clientID)
	if key == "" {
		return "unknown"
	}
	return key
}
