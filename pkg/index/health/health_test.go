package health_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/clock"
	"github.com/marmos91/codeindex/pkg/index/health"
	"github.com/marmos91/codeindex/pkg/index/ownership"
	"github.com/marmos91/codeindex/pkg/index/store"
	"github.com/marmos91/codeindex/pkg/index/store/memory"
)

func TestReaderStaysReaderWhenOwnerIsLive(t *testing.T) {
	st := memory.New()
	clk := clock.NewFake(time.Unix(1000, 0))
	arbiter := ownership.New(st, clk, func(int) bool { return true }, 90)

	_, err := arbiter.Acquire(t.Context(), 1)
	require.NoError(t, err)

	promoted := false
	m := health.New(health.Config{
		Arbiter: arbiter, Clock: clk, PID: 2,
		HealthCheckIntervalMs: 60_000,
		Promote:               func(context.Context) error { promoted = true; return nil },
	})
	m.StartReader()

	clk.Advance(60 * time.Second)
	assert.False(t, promoted)
}

func TestReaderPromotesWhenOwnerStale(t *testing.T) {
	st := memory.New()
	clk := clock.NewFake(time.Unix(1000, 0))
	arbiter := ownership.New(st, clk, func(int) bool { return true }, 90)

	_, err := arbiter.Acquire(t.Context(), 1)
	require.NoError(t, err)
	clk.Advance(200 * time.Second)

	var heartbeatStarted bool
	m := health.New(health.Config{
		Arbiter: arbiter, Clock: clk, PID: 2,
		HealthCheckIntervalMs: 60_000,
		Promote: func(context.Context) error {
			heartbeatStarted = true
			return nil
		},
	})
	m.StartReader()

	clk.Advance(60 * time.Second)
	assert.True(t, heartbeatStarted)
}

func TestFailedPromotionRunsDemoteAndRestartsHealthcheck(t *testing.T) {
	st := memory.New()
	clk := clock.NewFake(time.Unix(1000, 0))
	arbiter := ownership.New(st, clk, func(int) bool { return true }, 90)

	_, err := arbiter.Acquire(t.Context(), 1)
	require.NoError(t, err)
	clk.Advance(200 * time.Second)

	demoted := false
	attempts := 0
	m := health.New(health.Config{
		Arbiter: arbiter, Clock: clk, PID: 2,
		HealthCheckIntervalMs: 60_000,
		Promote: func(context.Context) error {
			attempts++
			return assertError{}
		},
		Demote: func() { demoted = true },
	})
	m.StartReader()
	clk.Advance(60 * time.Second)

	assert.True(t, demoted)
	assert.Equal(t, 1, attempts)

	// the healthcheck timer must have restarted: later ticks re-attempt. The
	// failed attempt's Acquire left a fresh row for PID 2, so the tick 60s
	// later still finds a live owner; the tick 120s later finds that row past
	// the 90s stale threshold and promotes again.
	clk.Advance(60 * time.Second)
	clk.Advance(60 * time.Second)
	assert.Equal(t, 2, attempts)
}

func TestExhaustedRetriesTriggersOnExhausted(t *testing.T) {
	st := memory.New()
	clk := clock.NewFake(time.Unix(1000, 0))
	// An arbiter over a store whose transactions always fail simulates
	// persistent acquire failures.
	arbiter := ownership.New(&failingStore{Store: st}, clk, nil, 90)

	exhausted := false
	m := health.New(health.Config{
		Arbiter: arbiter, Clock: clk, PID: 2,
		HealthCheckIntervalMs: 10,
		MaxRetries:            3,
		OnExhausted:           func() { exhausted = true },
	})
	m.StartReader()

	for i := 0; i < 3; i++ {
		clk.Advance(10 * time.Millisecond)
	}
	assert.True(t, exhausted)
}

func TestHeartbeatLoopTouchesOnEveryTick(t *testing.T) {
	st := memory.New()
	clk := clock.NewFake(time.Unix(1000, 0))
	arbiter := ownership.New(st, clk, func(int) bool { return true }, 90)
	_, err := arbiter.Acquire(t.Context(), 7)
	require.NoError(t, err)

	m := health.New(health.Config{Arbiter: arbiter, Clock: clk, PID: 7, HeartbeatIntervalMs: 30_000})
	m.StartHeartbeat()

	before, err := st.GetOwner(t.Context())
	require.NoError(t, err)

	clk.Advance(30 * time.Second)

	after, err := st.GetOwner(t.Context())
	require.NoError(t, err)
	assert.True(t, after.HeartbeatAt.After(before.HeartbeatAt))
}

func TestStopCancelsTimer(t *testing.T) {
	st := memory.New()
	clk := clock.NewFake(time.Unix(1000, 0))
	arbiter := ownership.New(st, clk, func(int) bool { return true }, 90)

	ticked := false
	m := health.New(health.Config{
		Arbiter: arbiter, Clock: clk, PID: 2, HealthCheckIntervalMs: 1000,
		Promote: func(context.Context) error { ticked = true; return nil },
	})
	m.StartReader()
	m.Stop()

	clk.Advance(2 * time.Second)
	assert.False(t, ticked)
}

type assertError struct{}

func (assertError) Error() string { return "promotion failed" }

// failingStore wraps a store.Store and fails every transaction, simulating
// a store that can't be reached.
type failingStore struct{ *memory.Store }

func (failingStore) Transaction(context.Context, func(store.Transaction) error) error {
	return assertError{}
}
