package ringpool

import (
	"context"
	"sync/atomic"
)

// Future is the consumer side of a task submitted with Process. It is
// resolved exactly once, with either the task's result or its failure.
type Future[R any] struct {
	done     chan struct{}
	resolved atomic.Bool
	value    R
	err      error
}

func (f *Future[R]) init() {
	f.done = make(chan struct{})
}

// resolve publishes the outcome. Only the first call has an effect.
func (f *Future[R]) resolve(v R, err error) bool {
	if !f.resolved.CompareAndSwap(false, true) {
		return false
	}
	f.value, f.err = v, err
	close(f.done)
	return true
}

// Get blocks until the task has finished and returns its result. If the
// task returned an error, panicked (*PanicError) or was dropped by Close
// (ErrTaskDropped), that error is returned.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// GetContext is like Get but gives up when ctx is done.
func (f *Future[R]) GetContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Done returns a channel closed once the future is resolved.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}
