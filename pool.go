package ringpool

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"unsafe"
)

// poolState represents pool lifecycle states
type poolState uint32

const (
	poolStateRunning poolState = iota
	poolStateClosing
	poolStateClosed
)

// Pool is a fixed ring of workers. Tasks are dispatched round-robin and each
// worker steals from its ring successor when it runs out of work.
type Pool struct {
	config  Config
	workers []*worker

	// Lifecycle management
	state      atomic.Uint32
	submitting atomic.Int64
	closeOnce  sync.Once

	// next is the round-robin dispatch counter
	next atomic.Uint64

	// Metrics
	submitted atomic.Uint64
	rejected  atomic.Uint64
	dropped   atomic.Uint64
}

// New creates and starts a pool with the given options.
// It returns an error if the configuration is invalid.
//
// Example:
//
//	pool, err := ringpool.New(
//	    ringpool.WithNumWorkers(4),
//	    ringpool.WithQueueSize(256),
//	)
func New(opts ...Option) (*Pool, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.normalize()

	if cfg.PinCPU {
		// Read the CPU set before the first worker narrows its thread.
		if _, err := cpuForWorker(0); err != nil {
			cfg.Logger.Warn("cpu pinning unavailable", "error", err)
		}
	}

	p := &Pool{
		config:  cfg,
		workers: make([]*worker, cfg.NumWorkers),
	}
	p.state.Store(uint32(poolStateRunning))

	for i := range p.workers {
		p.workers[i] = newWorker(i, cfg.QueueSize)
	}

	// Worker i steals from worker i+1; the last one wraps to the first.
	for i, w := range p.workers {
		w.start(p.workers[(i+1)%len(p.workers)], &p.config)
	}

	p.config.Logger.Debug("pool started",
		"workers", len(p.workers), "queue_size", p.workers[0].queue.Cap())
	return p, nil
}

// Post hands a task to the next worker in round-robin order. It returns false
// if that worker's queue is full, if the pool is closed, or if the task is
// empty. On failure the task still belongs to the caller.
//
// The task receives the id of the worker that actually runs it, which is not
// necessarily the worker it was posted to. Panics raised by the task are
// recovered and passed to the panic handler, if any.
func (p *Pool) Post(t Task) bool {
	return p.submit(t) == nil
}

// PostFunc is shorthand for Post(TaskFunc(fn)).
//
// Example:
//
//	ok := pool.PostFunc(func(workerID int) {
//	    fmt.Println("running on worker", workerID)
//	})
func (p *Pool) PostFunc(fn func(workerID int)) bool {
	return p.Post(TaskFunc(fn))
}

// Process submits fn and returns a Future for its result. The future
// reports the error returned by fn, or a *PanicError if fn panicked.
//
// Process returns ErrQueueFull if the chosen worker's queue is full and
// ErrPoolClosed after Close; no future is created in either case.
//
// Example:
//
//	fut, err := ringpool.Process(pool, func(workerID int) (int, error) {
//	    return 42, nil
//	})
//	if err != nil {
//	    return err
//	}
//	v, err := fut.Get()
func Process[R any](p *Pool, fn func(workerID int) (R, error)) (*Future[R], error) {
	if fn == nil {
		return nil, ErrNilTask
	}

	r := &processRunner[R]{fn: fn}
	r.init()
	if err := p.submit(NewTask(r)); err != nil {
		return nil, err
	}
	return &r.Future, nil
}

// processRunner bridges a result-returning function to the Task contract.
// Release resolves the future when the task is destroyed without running.
type processRunner[R any] struct {
	Future[R]
	fn func(workerID int) (R, error)
}

// processRunner is carried by pointer, which always fits.
const _ = TaskStorageSize - 1 - unsafe.Sizeof((*processRunner[struct{}])(nil))

func (r *processRunner[R]) Run(workerID int) {
	returned := false
	defer func() {
		var zero R
		if v := recover(); v != nil {
			r.resolve(zero, &PanicError{Value: v, Stack: string(debug.Stack()), WorkerID: workerID})
		} else if !returned {
			r.resolve(zero, ErrTaskExited)
		}
	}()

	v, err := r.fn(workerID)
	returned = true
	r.resolve(v, err)
}

func (r *processRunner[R]) Release() {
	var zero R
	r.resolve(zero, ErrTaskDropped)
}

// submit pushes t to the next worker. Posting is lock-free: the in-flight
// counter only lets Close wait for submitters that already passed the
// state check.
func (p *Pool) submit(t Task) error {
	if t.Empty() {
		return ErrNilTask
	}

	p.submitting.Add(1)
	defer p.submitting.Add(-1)

	if poolState(p.state.Load()) != poolStateRunning {
		return ErrPoolClosed
	}

	if !p.pick().post(t) {
		p.rejected.Add(1)
		return ErrQueueFull
	}
	p.submitted.Add(1)
	return nil
}

// pick selects a worker round-robin
func (p *Pool) pick() *worker {
	n := p.next.Add(1) - 1
	return p.workers[n%uint64(len(p.workers))]
}

// Close stops every worker, in index order, and waits for each goroutine to
// exit. Tasks still queued afterwards are destroyed without running; futures
// of dropped Process tasks resolve with ErrTaskDropped.
//
// Close is safe to call more than once; every call returns only after the
// pool has fully stopped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.state.Store(uint32(poolStateClosing))
		for p.submitting.Load() != 0 {
			runtime.Gosched()
		}

		for _, w := range p.workers {
			w.stop()
		}

		for _, w := range p.workers {
			for {
				t, ok := w.queue.Pop()
				if !ok {
					break
				}
				p.dropped.Add(1)
				w.release(&t)
			}
		}

		p.state.Store(uint32(poolStateClosed))
		p.config.Logger.Debug("pool closed",
			"submitted", p.submitted.Load(), "dropped", p.dropped.Load())
	})
}

// IsClosed reports whether Close has been called.
func (p *Pool) IsClosed() bool {
	return poolState(p.state.Load()) != poolStateRunning
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return len(p.workers)
}
