// Package movetracker matches symbols from deleted files to newly-created
// ones by fingerprint, and retargets inbound relations so a rename doesn't
// leave stale edges pointing at a path that no longer exists.
package movetracker

import (
	"context"

	"github.com/marmos91/codeindex/internal/logger"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

// Tracker retargets relations for symbols that moved files within one run.
type Tracker struct {
	store store.Store
}

// New constructs a Tracker bound to st.
func New(st store.Store) *Tracker {
	return &Tracker{store: st}
}

// Track runs after all changed files in an incremental run have been
// reindexed. snapshot is the per-file symbol list captured for every
// to-be-deleted file before its cascade delete. For each snapshotted
// symbol with a non-empty fingerprint, it looks up getByFingerprint; if
// exactly one match exists and it is not the symbol's original location,
// the symbol is considered moved and its inbound relations are retargeted.
// Ambiguous matches (more than one) are left alone.
func (t *Tracker) Track(ctx context.Context, project string, snapshot []*model.Symbol) error {
	for _, sym := range snapshot {
		if sym.Fingerprint == "" {
			continue
		}
		candidates, err := t.store.GetByFingerprint(ctx, project, sym.Fingerprint)
		if err != nil {
			return err
		}

		var match *model.Symbol
		matches := 0
		for _, c := range candidates {
			if c.RelativePath == sym.RelativePath && c.QualifiedName == sym.QualifiedName {
				continue
			}
			matches++
			match = c
		}
		if matches != 1 {
			continue
		}

		if err := t.store.RetargetRelations(ctx, project, sym.RelativePath, sym.QualifiedName, match.RelativePath, match.QualifiedName); err != nil {
			return err
		}
		logger.Info("retargeted relations for moved symbol",
			logger.Symbol(sym.QualifiedName), logger.OldPath(sym.RelativePath), logger.FilePath(match.RelativePath),
			logger.Fingerprint(sym.Fingerprint))
	}
	return nil
}
