package coordinator

import (
	"context"

	"github.com/marmos91/codeindex/pkg/index/model"
)

// runFuture is the completion handle for one doIndex pass. It resolves via
// channel-close happens-before semantics: resolve is called exactly once,
// and wait can be called any number of times (including after resolve) by
// any number of goroutines.
type runFuture struct {
	done   chan struct{}
	result *model.IndexResult
	err    error
}

func newRunFuture() *runFuture {
	return &runFuture{done: make(chan struct{})}
}

func (f *runFuture) resolve(result *model.IndexResult, err error) {
	f.result, f.err = result, err
	close(f.done)
}

func (f *runFuture) wait(ctx context.Context) (*model.IndexResult, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
