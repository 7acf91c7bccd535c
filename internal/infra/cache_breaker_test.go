package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker() (*breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := newBreaker(BreakerConfig{FailureThreshold: 3, SuccessThreshold: 2, OpenTimeout: time.Minute})
	b.now = clock.now
	return b, clock
}

var errRedisDown = errors.New("dial tcp: connection refused")

func fail() error { return errRedisDown }
func ok() error   { return nil }

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker()

	assert.ErrorIs(t, b.do(fail), errRedisDown)
	assert.ErrorIs(t, b.do(fail), errRedisDown)
	require.NoError(t, b.do(ok)) // resets the run
	assert.Equal(t, breakerClosed, b.current())

	for i := 0; i < 3; i++ {
		_ = b.do(fail)
	}
	assert.Equal(t, breakerOpen, b.current())

	called := false
	err := b.do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, errBreakerOpen)
	assert.False(t, called)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b, clock := newTestBreaker()
	var transitions []string
	b.onChange = func(from, to breakerState) { transitions = append(transitions, from.String()+">"+to.String()) }

	for i := 0; i < 3; i++ {
		_ = b.do(fail)
	}
	clock.advance(59 * time.Second)
	assert.Equal(t, breakerOpen, b.current())

	clock.advance(time.Second)
	assert.Equal(t, breakerHalfOpen, b.current())

	require.NoError(t, b.do(ok))
	assert.Equal(t, breakerHalfOpen, b.current())
	require.NoError(t, b.do(ok))
	assert.Equal(t, breakerClosed, b.current())

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, transitions)
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, clock := newTestBreaker()
	for i := 0; i < 3; i++ {
		_ = b.do(fail)
	}
	clock.advance(time.Minute)
	require.Equal(t, breakerHalfOpen, b.current())

	_ = b.do(fail)
	assert.Equal(t, breakerOpen, b.current())

	// a failure recorded while open restarts the cooldown
	clock.advance(30 * time.Second)
	b.record(errRedisDown)
	clock.advance(45 * time.Second)
	assert.Equal(t, breakerOpen, b.current())
	clock.advance(15 * time.Second)
	assert.Equal(t, breakerHalfOpen, b.current())
}

func TestBreakerConfig_Defaults(t *testing.T) {
	cfg := BreakerConfig{}.withDefaults()
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 2, cfg.SuccessThreshold)
	assert.Equal(t, 30*time.Second, cfg.OpenTimeout)
	assert.Equal(t, "unknown", breakerState(9).String())
}
