package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually-advanced Clock for deterministic coordinator/health-
// monitor tests. Advance fires any timers and ticks any tickers whose
// deadline falls at or before the new time, synchronously on the calling
// goroutine, in deadline order. A tick that finds the ticker's channel full
// is dropped, as with time.Ticker.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	tickers []*fakeTicker
}

// NewFake returns a Fake seeded at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d, firing due timers/tickers.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.now = target

	type dueFn struct {
		at time.Time
		fn func()
	}
	var due []dueFn
	for _, t := range f.timers {
		if t.stopped || t.deadline.After(target) {
			continue
		}
		due = append(due, dueFn{t.deadline, t.fn})
		t.stopped = true
	}
	for _, tk := range f.tickers {
		for !tk.stopped && !tk.next.After(target) {
			ch := tk.ch
			due = append(due, dueFn{tk.next, func() {
				select {
				case ch <- target:
				default:
				}
			}})
			tk.next = tk.next.Add(tk.period)
		}
	}
	f.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, d := range due {
		d.fn()
	}
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, deadline: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	// The buffer holds the ticks of several periods passed in one Advance.
	tk := &fakeTicker{clock: f, period: d, next: f.now.Add(d), ch: make(chan time.Time, 16)}
	f.tickers = append(f.tickers, tk)
	return tk
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	fn       func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	fired := t.stopped
	t.stopped = true
	return !fired
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped
	t.stopped = false
	t.deadline = t.clock.now.Add(d)
	return active
}

type fakeTicker struct {
	clock   *Fake
	period  time.Duration
	next    time.Time
	ch      chan time.Time
	stopped bool
}

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

var _ Clock = (*Fake)(nil)
