// Package clock provides the time seam used by the ownership arbiter,
// coordinator debounce timer, and health monitor, so tests can drive
// deterministic runs without sleeping.
package clock

import "time"

// Clock abstracts wall-clock time and timer construction.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) Ticker
}

// Timer is the subset of *time.Timer the core depends on.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// Ticker is the subset of *time.Ticker the core depends on.
type Ticker interface {
	Stop()
	C() <-chan time.Time
}

// System is the production Clock backed by the real time package.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) AfterFunc(d time.Duration, f func()) Timer {
	return systemTimer{time.AfterFunc(d, f)}
}

func (System) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTimer struct{ t *time.Timer }

func (s systemTimer) Stop() bool             { return s.t.Stop() }
func (s systemTimer) Reset(d time.Duration) bool { return s.t.Reset(d) }

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) Stop()                 { s.t.Stop() }
func (s systemTicker) C() <-chan time.Time   { return s.t.C }

var _ Clock = System{}
