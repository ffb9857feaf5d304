package live

import (
	"sync"
	"time"
)

// Cooldown rate-limits announcements: Allow succeeds at most once per
// period.
type Cooldown struct {
	period time.Duration
	now    func() time.Time

	mu    sync.Mutex
	last  time.Time
	fired bool
}

// NewCooldown creates a cooldown with the given period.
func NewCooldown(period time.Duration) *Cooldown {
	return &Cooldown{period: period, now: time.Now}
}

// SetClock overrides the time source.
func (c *Cooldown) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Allow reports whether at least one period has passed since the last
// allowed call, and if so starts a new period.
func (c *Cooldown) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.fired && now.Sub(c.last) < c.period {
		return false
	}
	c.last = now
	c.fired = true
	return true
}

// Reset forgets the last announcement.
func (c *Cooldown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fired = false
	c.last = time.Time{}
}
