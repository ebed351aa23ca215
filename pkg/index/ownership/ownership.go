// Package ownership implements the single-writer election protocol: exactly
// one session per project root becomes the owner; the rest are readers. A
// crashed owner's row is reclaimed once its heartbeat goes stale or its pid
// fails a liveness probe, without a separate cleanup daemon.
package ownership

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/codeindex/internal/logger"
	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

// Role is the outcome of Acquire.
type Role int

const (
	Reader Role = iota
	Owner
)

func (r Role) String() string {
	if r == Owner {
		return "owner"
	}
	return "reader"
}

// DefaultStaleSeconds is the heartbeat age after which an owner is
// considered crashed even if its pid still passes the liveness probe.
const DefaultStaleSeconds = 90

// LivenessProbe reports whether pid still names a live process. Injected so
// tests can simulate crashed owners without killing a real process.
type LivenessProbe func(pid int) bool

// Arbiter elects and tracks ownership of one store.
type Arbiter struct {
	store         store.Store
	clock         Clock
	livenessProbe LivenessProbe
	staleSeconds  int
	instanceID    string
}

// Clock is the subset of clock.Clock the arbiter needs (kept narrow to
// avoid an import of the clock package's timer machinery here).
type Clock interface {
	Now() time.Time
}

// New constructs an Arbiter. staleSeconds <= 0 uses DefaultStaleSeconds.
// Each Arbiter mints its own instance ID, so ownership it wins is never
// mistaken for a different process's row sharing the same pid.
func New(st store.Store, clk Clock, probe LivenessProbe, staleSeconds int) *Arbiter {
	if staleSeconds <= 0 {
		staleSeconds = DefaultStaleSeconds
	}
	return &Arbiter{
		store:         st,
		clock:         clk,
		livenessProbe: probe,
		staleSeconds:  staleSeconds,
		instanceID:    uuid.NewString(),
	}
}

// InstanceID returns the arbiter's unique identity, stamped on every
// OwnerRow it writes.
func (a *Arbiter) InstanceID() string {
	return a.instanceID
}

// Acquire runs inside one store transaction. It returns Owner if no
// OwnerRow exists, or the existing owner fails the liveness probe or its
// heartbeat is older than staleSeconds — in which case the row is replaced
// atomically with pid's row. Otherwise it returns Reader without mutating
// the store.
func (a *Arbiter) Acquire(ctx context.Context, pid int) (Role, error) {
	var role Role
	err := a.store.Transaction(ctx, func(tx store.Transaction) error {
		existing, err := tx.GetOwner(ctx)
		if err != nil {
			if !indexerrors.Is(err, indexerrors.Store) {
				return err
			}
			existing = nil
		}

		if existing == nil || a.isStale(existing) {
			now := a.clock.Now()
			if err := tx.PutOwner(ctx, &model.OwnerRow{PID: pid, InstanceID: a.instanceID, HeartbeatAt: now}); err != nil {
				return err
			}
			role = Owner
			return nil
		}

		role = Reader
		return nil
	})
	if err != nil {
		return Reader, indexerrors.Wrap(indexerrors.Store, "ownership acquire failed", err)
	}

	logger.Info("ownership acquire resolved", logger.OwnerPID(pid), logger.OwnerRole(role.String()))
	return role, nil
}

func (a *Arbiter) isStale(existing *model.OwnerRow) bool {
	if a.livenessProbe != nil && !a.livenessProbe(existing.PID) {
		return true
	}
	age := a.clock.Now().Sub(existing.HeartbeatAt)
	return age >= time.Duration(a.staleSeconds)*time.Second
}

// Release deletes the owner row, but only if it's still this Arbiter's
// row: a row already reclaimed by another instance (stale takeover) is
// left untouched.
func (a *Arbiter) Release(ctx context.Context, pid int) error {
	err := a.store.Transaction(ctx, func(tx store.Transaction) error {
		owner, err := tx.GetOwner(ctx)
		if err != nil {
			if indexerrors.Is(err, indexerrors.Store) {
				return nil
			}
			return err
		}
		if owner.InstanceID != a.instanceID {
			return nil
		}
		return tx.DeleteOwner(ctx)
	})
	if err != nil {
		return indexerrors.Wrap(indexerrors.Store, "ownership release failed", err)
	}
	logger.Info("ownership released", logger.OwnerPID(pid))
	return nil
}

// Touch updates the heartbeat timestamp for this Arbiter's ownership row.
// If the row now belongs to a different instance, the heartbeat is
// skipped rather than overwriting a newer owner's claim.
func (a *Arbiter) Touch(ctx context.Context, pid int) error {
	err := a.store.Transaction(ctx, func(tx store.Transaction) error {
		owner, err := tx.GetOwner(ctx)
		if err != nil {
			return err
		}
		if owner.InstanceID != a.instanceID {
			return nil
		}
		owner.HeartbeatAt = a.clock.Now()
		return tx.PutOwner(ctx, owner)
	})
	if err != nil {
		return indexerrors.Wrap(indexerrors.Store, "ownership heartbeat failed", err)
	}
	return nil
}
