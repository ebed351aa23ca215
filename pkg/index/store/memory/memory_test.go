package memory_test

import (
	"testing"

	"github.com/marmos91/codeindex/pkg/index/store"
	"github.com/marmos91/codeindex/pkg/index/store/memory"
	"github.com/marmos91/codeindex/pkg/index/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}
