package connection

import (
	"sync"
	"time"
)

// Backoff constants.
const (
	// BackoffStep is how much the delay grows per failed attempt.
	BackoffStep = 1 * time.Second

	// MaxBackoff is the delay ceiling.
	MaxBackoff = 60 * time.Second
)

// Backoff computes linearly ramping reconnection delays. The delay
// starts at zero and each attempt adds one step, up to the ceiling; it
// returns to zero only on confirmed success.
type Backoff struct {
	mu sync.Mutex

	current  time.Duration
	step     time.Duration
	max      time.Duration
	attempts int
}

// NewBackoff creates a backoff calculator with default settings.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{})
}

// BackoffConfig allows customizing the ramp, mainly for tests.
type BackoffConfig struct {
	Step time.Duration
	Max  time.Duration
}

// NewBackoffWithConfig creates a backoff calculator with custom settings.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	if cfg.Step <= 0 {
		cfg.Step = BackoffStep
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	return &Backoff{step: cfg.Step, max: cfg.Max}
}

// Next advances the ramp and returns the new delay. It is called at the
// start of each attempt; the returned value is the delay to sleep if
// that attempt fails.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempts++
	if b.current < b.max {
		b.current += b.step
		if b.current > b.max {
			b.current = b.max
		}
	}
	return b.current
}

// Current returns the current delay without advancing.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Reset returns the ramp to zero. Call after a confirmed success.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = 0
	b.attempts = 0
}

// Attempts returns the number of attempts since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}
