package ringpool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// WorkerState represents the lifecycle state of a worker
type WorkerState int32

const (
	StateCreated WorkerState = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s WorkerState) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// worker owns one task queue and one goroutine. When its own queue is empty
// it steals from exactly one sibling, its donor.
type worker struct {
	id    int
	queue *MPMCQueue[Task]

	// donor is set once by start and never changes afterwards
	donor *worker

	running  atomic.Bool
	state    atomic.Int32
	done     chan struct{}
	stopOnce sync.Once

	// Metrics
	tasksExecuted atomic.Uint64
	tasksStolen   atomic.Uint64
	tasksFailed   atomic.Uint64
}

// newWorker creates a worker in the Created state
func newWorker(id, queueSize int) *worker {
	w := &worker{
		id:    id,
		queue: NewMPMCQueue[Task](queueSize),
		done:  make(chan struct{}),
	}
	w.state.Store(int32(StateCreated))
	return w
}

// start spawns the worker goroutine. It must be called at most once.
func (w *worker) start(donor *worker, cfg *Config) {
	w.donor = donor
	w.running.Store(true)
	w.state.Store(int32(StateRunning))
	go w.run(cfg, false)
}

// stop clears the running flag and waits for the goroutine to exit.
// Tasks still queued are left in place.
func (w *worker) stop() {
	w.stopOnce.Do(func() {
		if w.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
			close(w.done)
			return
		}
		w.running.Store(false)
		// The goroutine may already have stored Stopped; never overwrite it.
		w.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	})
	<-w.done
}

// post pushes a task onto the local queue
func (w *worker) post(t Task) bool {
	return w.queue.Push(t)
}

// steal takes one task from this worker's queue on behalf of a sibling.
// For the queue this is the same operation as the owner popping its own work.
func (w *worker) steal() (Task, bool) {
	return w.queue.Pop()
}

// getState returns the current worker state
func (w *worker) getState() WorkerState {
	return WorkerState(w.state.Load())
}

// run is the main worker loop. A task or hook that calls runtime.Goexit
// ends the current goroutine; the loop then continues on a fresh one and
// OnStart is not called again.
func (w *worker) run(cfg *Config, resumed bool) {
	finished := false
	defer func() {
		if !finished {
			cfg.Logger.Debug("worker goroutine exited early, resuming", "worker", w.id)
			go w.run(cfg, true)
		}
	}()

	if cfg.LockOSThread {
		runtime.LockOSThread()
		if cfg.PinCPU {
			// A pinned thread is never handed back to the scheduler; it is
			// destroyed when the goroutine exits still locked.
			if err := pinCurrentThread(w.id); err != nil {
				cfg.Logger.Warn("cpu pinning failed", "worker", w.id, "error", err)
			}
		} else {
			defer runtime.UnlockOSThread()
		}
	}

	if !resumed {
		cfg.Logger.Debug("worker started", "worker", w.id)
		safeCall(cfg.OnStart, w.id)
	}

	// Declared once so that taking its address does not allocate per task.
	var task Task
	for w.running.Load() {
		var ok bool
		task, ok = w.queue.Pop()
		if !ok {
			if task, ok = w.donor.steal(); ok {
				w.tasksStolen.Add(1)
			}
		}
		if !ok {
			time.Sleep(cfg.IdleSleep)
			continue
		}
		w.execute(&task, cfg.PanicHandler)
	}

	finished = true
	defer func() {
		w.state.Store(int32(StateStopped))
		cfg.Logger.Debug("worker stopped", "worker", w.id,
			"executed", w.tasksExecuted.Load(), "stolen", w.tasksStolen.Load())
		close(w.done)
	}()
	safeCall(cfg.OnStop, w.id)
}

// execute runs a task with panic recovery and destroys it afterwards.
// A task that calls runtime.Goexit counts as failed and is reported to
// onPanic with ErrTaskExited.
func (w *worker) execute(task *Task, onPanic func(workerID int, v any)) {
	returned := false
	defer func() {
		r := recover()
		if r != nil || !returned {
			if r == nil {
				r = ErrTaskExited
			}
			w.tasksFailed.Add(1)
			if onPanic != nil {
				safeCall(func(id int) { onPanic(id, r) }, w.id)
			}
		}
		w.tasksExecuted.Add(1)
		w.release(task)
	}()

	_ = task.Invoke(w.id)
	returned = true
}

// release destroys an executed task, discarding a panic raised by its
// Release method
func (w *worker) release(task *Task) {
	defer func() {
		_ = recover()
	}()
	task.Reset()
}

// safeCall invokes fn, discarding any panic it raises. A nil fn is skipped.
func safeCall(fn func(workerID int), workerID int) {
	if fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	fn(workerID)
}
