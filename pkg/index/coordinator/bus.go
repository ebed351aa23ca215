package coordinator

import (
	"fmt"
	"sync"

	"github.com/marmos91/codeindex/internal/logger"
	"github.com/marmos91/codeindex/pkg/index/model"
)

// Callback is invoked once per completed run, in registration order.
type Callback func(*model.IndexResult)

// Bus fans out index-completed events to registered callbacks in
// registration order, isolating each callback from the others' panics.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []subscriber
}

type subscriber struct {
	id uint64
	cb Callback
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers cb and returns a function that unsubscribes it.
// Unsubscribing during emission is safe: the in-flight Emit call has
// already snapshotted its subscriber list.
func (b *Bus) Subscribe(cb Callback) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, subscriber{id: id, cb: cb})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				break
			}
		}
	}
}

// Emit invokes every subscribed callback, in registration order, against a
// snapshot of the subscriber list taken under lock. A panicking callback is
// recovered and logged; it never prevents later callbacks from running.
func (b *Bus) Emit(result *model.IndexResult) {
	b.mu.Lock()
	snapshot := make([]subscriber, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	for _, s := range snapshot {
		b.invoke(s, result)
	}
}

func (b *Bus) invoke(s subscriber, result *model.IndexResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("onIndexed callback panicked", logger.Err(asError(r)))
		}
	}()
	s.cb(result)
}

func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
