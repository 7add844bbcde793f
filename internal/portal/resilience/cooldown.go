package resilience

import (
	"sync"
	"time"
)

// CooldownConfig tunes the auth failure cooldown.
type CooldownConfig struct {
	// Threshold is the number of consecutive auth failures that activates it
	Threshold int
	// Base is the cooldown applied when the threshold is first reached
	Base time.Duration
	// MaxMultiplier caps the exponential growth of Base
	MaxMultiplier int
}

// Cooldown is the exponential backoff applied after repeated auth failures.
// It shares no state with the Breaker. The session controller owns one and
// exposes it to the Layer through CooldownGate.
type Cooldown struct {
	cfg CooldownConfig

	mu       sync.Mutex
	failures int
	until    time.Time
	last     time.Duration
}

func NewCooldown(cfg CooldownConfig) *Cooldown {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 1
	}
	if cfg.MaxMultiplier <= 0 {
		cfg.MaxMultiplier = 1
	}
	return &Cooldown{cfg: cfg}
}

// Failure records an auth failure at now and returns the cooldown remaining,
// if one is active. A failure soon after a cooldown ends starts the next one
// at double the previous length. The count only resets once a further
// cooldown length has passed after the last one ended.
func (c *Cooldown) Failure(now time.Time) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked(now)
	c.failures++
	if c.failures < c.cfg.Threshold {
		return 0, false
	}

	c.last = c.durationLocked()
	c.until = now.Add(c.last)
	return c.last, true
}

// Active returns the cooldown remaining at now.
func (c *Cooldown) Active(now time.Time) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked(now)
	if c.until.IsZero() || !now.Before(c.until) {
		return 0, false
	}
	return c.until.Sub(now), true
}

// Success clears the failure history and any active cooldown.
func (c *Cooldown) Success() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.until = time.Time{}
	c.last = 0
}

// Reset clears the count and any active cooldown.
func (c *Cooldown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.until = time.Time{}
	c.last = 0
}

// Failures returns the consecutive failure count.
func (c *Cooldown) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// expireLocked forgets the failure history once a quiet period as long as
// the last cooldown has followed it.
func (c *Cooldown) expireLocked(now time.Time) {
	if !c.until.IsZero() && !now.Before(c.until.Add(c.last)) {
		c.failures = 0
		c.until = time.Time{}
		c.last = 0
	}
}

func (c *Cooldown) durationLocked() time.Duration {
	mult := 1
	for i := c.cfg.Threshold; i < c.failures && mult < c.cfg.MaxMultiplier; i++ {
		mult *= 2
	}
	mult = min(mult, c.cfg.MaxMultiplier)
	return c.cfg.Base * time.Duration(mult)
}
