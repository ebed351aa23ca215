package ownership_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/ownership"
	"github.com/marmos91/codeindex/pkg/index/store/memory"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

func TestAcquireBecomesOwnerWhenNoRowExists(t *testing.T) {
	st := memory.New()
	a := ownership.New(st, fakeClock{now: time.Unix(1000, 0)}, nil, 90)

	role, err := a.Acquire(t.Context(), 111)
	require.NoError(t, err)
	assert.Equal(t, ownership.Owner, role)
}

func TestAcquireBecomesReaderWhenOwnerIsLive(t *testing.T) {
	st := memory.New()
	now := time.Unix(1000, 0)
	a := ownership.New(st, fakeClock{now: now}, func(pid int) bool { return true }, 90)

	_, err := a.Acquire(t.Context(), 111)
	require.NoError(t, err)

	role, err := a.Acquire(t.Context(), 222)
	require.NoError(t, err)
	assert.Equal(t, ownership.Reader, role)
}

func TestAcquireReclaimsWhenHeartbeatStale(t *testing.T) {
	st := memory.New()
	clk := &fakeClock{now: time.Unix(1000, 0)}
	a := ownership.New(st, clk, func(pid int) bool { return true }, 90)

	_, err := a.Acquire(t.Context(), 111)
	require.NoError(t, err)

	clk.now = clk.now.Add(200 * time.Second)
	role, err := a.Acquire(t.Context(), 222)
	require.NoError(t, err)
	assert.Equal(t, ownership.Owner, role)
}

func TestAcquireReclaimsWhenLivenessProbeFails(t *testing.T) {
	st := memory.New()
	clk := &fakeClock{now: time.Unix(1000, 0)}
	dead := map[int]bool{111: true}
	a := ownership.New(st, clk, func(pid int) bool { return !dead[pid] }, 90)

	_, err := a.Acquire(t.Context(), 111)
	require.NoError(t, err)

	role, err := a.Acquire(t.Context(), 222)
	require.NoError(t, err)
	assert.Equal(t, ownership.Owner, role)
}

func TestReleaseRemovesOwnerRow(t *testing.T) {
	st := memory.New()
	a := ownership.New(st, fakeClock{now: time.Unix(1000, 0)}, nil, 90)

	_, err := a.Acquire(t.Context(), 111)
	require.NoError(t, err)
	require.NoError(t, a.Release(t.Context(), 111))

	role, err := a.Acquire(t.Context(), 222)
	require.NoError(t, err)
	assert.Equal(t, ownership.Owner, role)
}

func TestReleaseIgnoresRowOwnedByAnotherInstance(t *testing.T) {
	st := memory.New()
	clk := &fakeClock{now: time.Unix(1000, 0)}
	a := ownership.New(st, clk, func(pid int) bool { return true }, 90)

	_, err := a.Acquire(t.Context(), 111)
	require.NoError(t, err)

	clk.now = clk.now.Add(200 * time.Second)
	b := ownership.New(st, clk, func(pid int) bool { return true }, 90)
	role, err := b.Acquire(t.Context(), 111)
	require.NoError(t, err)
	require.Equal(t, ownership.Owner, role)

	require.NoError(t, a.Release(t.Context(), 111))

	role, err = b.Acquire(t.Context(), 111)
	require.NoError(t, err)
	assert.Equal(t, ownership.Reader, role)
}

func TestTouchUpdatesHeartbeat(t *testing.T) {
	st := memory.New()
	clk := &fakeClock{now: time.Unix(1000, 0)}
	a := ownership.New(st, clk, func(pid int) bool { return true }, 90)

	_, err := a.Acquire(t.Context(), 111)
	require.NoError(t, err)

	clk.now = clk.now.Add(80 * time.Second)
	require.NoError(t, a.Touch(t.Context(), 111))

	clk.now = clk.now.Add(80 * time.Second)
	role, err := a.Acquire(t.Context(), 222)
	require.NoError(t, err)
	assert.Equal(t, ownership.Reader, role)
}
