package infra

import (
	"errors"
	"sync"
	"time"
)

// ── Cache circuit breaker ─────────────────────────────────────────────────────
// Closed → Open after FailureThreshold consecutive Redis errors. While open
// the cache is bypassed without a network round trip. Once OpenTimeout has
// passed calls go through again (half-open); SuccessThreshold successes close
// the breaker, any failure re-opens it.

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var errBreakerOpen = errors.New("part cache circuit open")

// BreakerConfig tunes when the part cache gives up on Redis and when it
// tries again.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}

type breaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	state     breakerState
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time

	// onChange is called under the lock; it must not call back into b.
	onChange func(from, to breakerState)
}

func newBreaker(cfg BreakerConfig) *breaker {
	return &breaker{cfg: cfg.withDefaults(), now: time.Now}
}

func (b *breaker) current() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireLocked()
	return b.state
}

func (b *breaker) expireLocked() {
	if b.state == breakerOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.setLocked(breakerHalfOpen)
		b.successes = 0
	}
}

// do runs fn unless the breaker is open and records the outcome.
func (b *breaker) do(fn func() error) error {
	if b.current() == breakerOpen {
		return errBreakerOpen
	}
	err := fn()
	b.record(err)
	return err
}

// record feeds the outcome of a call made outside do into the breaker.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireLocked()

	if err != nil {
		b.failures++
		switch b.state {
		case breakerClosed:
			if b.failures >= b.cfg.FailureThreshold {
				b.tripLocked()
			}
		case breakerHalfOpen:
			b.tripLocked()
		case breakerOpen:
			b.openedAt = b.now()
		}
		return
	}

	switch b.state {
	case breakerClosed:
		b.failures = 0
	case breakerHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.setLocked(breakerClosed)
			b.failures, b.successes = 0, 0
		}
	}
}

func (b *breaker) tripLocked() {
	b.setLocked(breakerOpen)
	b.openedAt = b.now()
	b.failures, b.successes = 0, 0
}

func (b *breaker) setLocked(to breakerState) {
	from := b.state
	b.state = to
	if from != to && b.onChange != nil {
		b.onChange(from, to)
	}
}
