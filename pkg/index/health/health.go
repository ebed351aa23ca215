// Package health implements the reader-side acquire-retry loop that
// watches for ownership becoming available, and the owner-side heartbeat
// loop that keeps an owned lease alive. Promotion and demotion are
// mediated by injected hooks so the monitor stays independent of the
// session's watcher and coordinator lifecycle.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/codeindex/internal/logger"
	"github.com/marmos91/codeindex/pkg/index/clock"
	"github.com/marmos91/codeindex/pkg/index/ownership"
)

// Defaults for the retry/heartbeat cadence.
const (
	DefaultHealthCheckIntervalMs = 60_000
	DefaultHeartbeatIntervalMs   = 30_000
	DefaultMaxRetries            = 10
)

// Config wires a Monitor to the ownership arbiter and the Session's
// promotion/demotion/exhaustion hooks.
type Config struct {
	Arbiter               *ownership.Arbiter
	Clock                 clock.Clock
	PID                   int
	HealthCheckIntervalMs int
	HeartbeatIntervalMs   int
	MaxRetries            int

	// Promote runs a reader->owner promotion: build the promoted
	// watcher+coordinator pair, re-subscribe every onIndexed callback, start
	// the watcher, start the heartbeat, run an initial full index. It must
	// set the heartbeat handle before returning success, so a later failure
	// is distinguishable from the reader state by a non-null timer.
	Promote func(ctx context.Context) error

	// Demote runs best-effort cleanup after a failed promotion: close the
	// promoted watcher, shut down the promoted coordinator, null the
	// Session's references.
	Demote func()

	// OnExhausted runs once retries reach MaxRetries: Session.close(),
	// best-effort.
	OnExhausted func()
}

// Monitor implements the reader-side loop and the owner-side heartbeat.
// Only one of StartReader/StartHeartbeat is active on a given Session at a
// time; promotion transitions a Monitor from one to the other.
type Monitor struct {
	mu      sync.Mutex
	cfg     Config
	clk     clock.Clock
	retries int
	timer   clock.Timer
	stopped bool
}

// New constructs a Monitor. Zero-valued interval/retry fields fall back to
// the package defaults; a nil Clock defaults to clock.System{}.
func New(cfg Config) *Monitor {
	if cfg.HealthCheckIntervalMs <= 0 {
		cfg.HealthCheckIntervalMs = DefaultHealthCheckIntervalMs
	}
	if cfg.HeartbeatIntervalMs <= 0 {
		cfg.HeartbeatIntervalMs = DefaultHeartbeatIntervalMs
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &Monitor{cfg: cfg, clk: clk}
}

// StartReader begins the reader-side acquire-retry loop, ticking every
// HealthCheckIntervalMs.
func (m *Monitor) StartReader() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.timer = m.clk.AfterFunc(m.healthCheckInterval(), m.tick)
}

func (m *Monitor) healthCheckInterval() time.Duration {
	return time.Duration(m.cfg.HealthCheckIntervalMs) * time.Millisecond
}

func (m *Monitor) heartbeatInterval() time.Duration {
	return time.Duration(m.cfg.HeartbeatIntervalMs) * time.Millisecond
}

func (m *Monitor) tick() {
	ctx := context.Background()
	role, err := m.cfg.Arbiter.Acquire(ctx, m.cfg.PID)
	if err != nil {
		logger.Warn("healthcheck acquire failed", logger.Err(err))
		m.mu.Lock()
		m.retries++
		exhausted := m.retries >= m.cfg.MaxRetries
		if exhausted && m.timer != nil {
			m.timer.Stop()
			m.timer = nil
		}
		m.mu.Unlock()

		if exhausted {
			if m.cfg.OnExhausted != nil {
				m.cfg.OnExhausted()
			}
			return
		}
		m.rescheduleReader()
		return
	}

	m.mu.Lock()
	m.retries = 0
	m.mu.Unlock()

	if role == ownership.Reader {
		m.rescheduleReader()
		return
	}

	m.promote(ctx)
}

func (m *Monitor) rescheduleReader() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.timer = m.clk.AfterFunc(m.healthCheckInterval(), m.tick)
}

// promote stops the healthcheck timer and invokes the injected Promote
// hook. On failure, Demote runs and the healthcheck timer restarts only if
// Promote left no timer installed (i.e. it never reached the
// set-heartbeat-handle step).
func (m *Monitor) promote(ctx context.Context) {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	if m.cfg.Promote == nil {
		return
	}

	if err := m.cfg.Promote(ctx); err != nil {
		logger.Error("promotion to owner failed, remaining reader", logger.Err(err))
		if m.cfg.Demote != nil {
			m.cfg.Demote()
		}
		m.mu.Lock()
		restart := m.timer == nil
		m.mu.Unlock()
		if restart {
			m.rescheduleReader()
		}
		return
	}

	logger.Info("promoted to owner", logger.OwnerPID(m.cfg.PID))
}

// StartHeartbeat begins the owner-side periodic Touch loop and returns the
// installed timer, so a caller running inside Promote can hold the handle
// before publishing the promoted coordinator/watcher references.
func (m *Monitor) StartHeartbeat() clock.Timer {
	var loop func()
	loop = func() {
		if err := m.cfg.Arbiter.Touch(context.Background(), m.cfg.PID); err != nil {
			logger.Warn("heartbeat touch failed", logger.Err(err))
		}
		m.mu.Lock()
		if !m.stopped {
			m.timer = m.clk.AfterFunc(m.heartbeatInterval(), loop)
		}
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.timer = m.clk.AfterFunc(m.heartbeatInterval(), loop)
	t := m.timer
	m.mu.Unlock()
	return t
}

// Stop cancels whichever timer is currently installed (healthcheck or
// heartbeat) and prevents further rescheduling.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
