// Package storetest is a conformance suite run against every store.Store
// backend (badger, memory) so they stay behaviorally identical: one
// StoreFactory type, one RunConformanceSuite entry point, a category per
// sub-test.
package storetest

import (
	"testing"

	"github.com/marmos91/codeindex/pkg/index/store"
)

// StoreFactory creates a fresh store.Store instance for each test.
type StoreFactory func(t *testing.T) store.Store

// RunConformanceSuite runs the full conformance suite against factory. Each
// sub-test gets its own store instance.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("FileOps", func(t *testing.T) {
		runFileOpsTests(t, factory)
	})

	t.Run("SymbolOps", func(t *testing.T) {
		runSymbolOpsTests(t, factory)
	})

	t.Run("RelationOps", func(t *testing.T) {
		runRelationOpsTests(t, factory)
	})

	t.Run("OwnerOps", func(t *testing.T) {
		runOwnerOpsTests(t, factory)
	})

	t.Run("Transaction", func(t *testing.T) {
		runTransactionTests(t, factory)
	})

	t.Run("Cascade", func(t *testing.T) {
		runCascadeTests(t, factory)
	})
}
