// Package group runs a batch of related tasks on a ringpool.Pool and waits
// for all of them, with a shared cancellation context.
package group

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/tahsin716/ringpool"
)

// Group tracks tasks submitted to a pool as one unit of work
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	pool   *ringpool.Pool
	config Config

	futuresMux sync.Mutex
	futures    []*ringpool.Future[struct{}]

	// Error handling
	failOnce sync.Once
	firstErr error // set once under failOnce, used in FailFast

	// Stats
	started   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// Stats is a snapshot of group progress
type Stats struct {
	Started   int64
	Completed int64
	Failed    int64
}

// New creates a Group that submits its tasks to p
func New(p *ringpool.Pool, opts ...Option) *Group {
	return WithContext(context.Background(), p, opts...)
}

// WithContext creates a Group whose context derives from ctx
func WithContext(ctx context.Context, p *ringpool.Pool, opts ...Option) *Group {
	config := BuildConfig(opts)

	if ctx == nil {
		ctx = context.Background()
	}

	groupCtx, cancel := context.WithCancel(ctx)

	return &Group{
		ctx:    groupCtx,
		cancel: cancel,
		pool:   p,
		config: config,
	}
}

// Context returns the group context. It is cancelled by Stop, by Wait, and
// by the first failure in FailFast mode.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Go submits fn to the pool. The returned error reports a failed submission
// (ringpool.ErrQueueFull, ringpool.ErrPoolClosed); in that case fn is not
// part of the group. Errors returned by fn are reported by Wait.
func (g *Group) Go(fn func(ctx context.Context, workerID int) error) error {
	if fn == nil {
		return ringpool.ErrNilTask
	}

	fut, err := ringpool.Process(g.pool, func(workerID int) (struct{}, error) {
		err := g.run(fn, workerID)
		if err != nil {
			g.failed.Add(1)
			g.handleError(err)
		}
		g.completed.Add(1)
		return struct{}{}, err
	})
	if err != nil {
		return err
	}

	g.started.Add(1)
	g.futuresMux.Lock()
	g.futures = append(g.futures, fut)
	g.futuresMux.Unlock()
	return nil
}

// GoSafe submits a fire-and-forget task whose panics are swallowed
func (g *Group) GoSafe(fn func(ctx context.Context, workerID int)) error {
	return g.Go(func(ctx context.Context, workerID int) error {
		defer func() {
			_ = recover()
		}()
		fn(ctx, workerID)
		return nil
	})
}

// run calls fn, turning a panic into a *ringpool.PanicError
func (g *Group) run(fn func(context.Context, int) error, workerID int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ringpool.PanicError{
				Value:    r,
				Stack:    string(debug.Stack()),
				WorkerID: workerID,
			}
		}
	}()
	return fn(g.ctx, workerID)
}

// Wait waits for every submitted task and returns any errors.
// Tasks dropped by a pool Close report ringpool.ErrTaskDropped.
func (g *Group) Wait() error {
	g.futuresMux.Lock()
	futures := g.futures
	g.futuresMux.Unlock()

	var collected []error
	for _, fut := range futures {
		if _, err := fut.Get(); err != nil {
			collected = append(collected, err)
		}
	}
	g.Stop()

	switch g.config.errorMode {
	case IgnoreErrors:
		return nil

	case FailFast:
		if g.firstErr != nil {
			return g.firstErr
		}
		if len(collected) > 0 {
			return collected[0]
		}
		return nil

	case CollectAll:
		if len(collected) > 0 {
			return AggregateError{Errors: collected}
		}
		return nil

	default:
		return nil
	}
}

// Stop cancels the group context, signaling all tasks to stop
func (g *Group) Stop() {
	g.cancel()
}

// Stats returns a snapshot of group progress
func (g *Group) Stats() Stats {
	return Stats{
		Started:   g.started.Load(),
		Completed: g.completed.Load(),
		Failed:    g.failed.Load(),
	}
}

// handleError records the first failure and cancels the group in FailFast mode
func (g *Group) handleError(err error) {
	if g.config.errorMode != FailFast {
		return
	}
	g.failOnce.Do(func() {
		g.firstErr = err
		g.cancel()
	})
}
