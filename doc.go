// Package ringpool provides a fixed-size worker pool with per-worker bounded
// lock-free queues and work stealing.
//
// Each worker owns one MPMCQueue of Tasks and one goroutine, locked to its own
// OS thread by default. Submitted work is dispatched round-robin. A worker
// whose queue is empty steals from exactly one sibling, its successor in the
// worker ring, and sleeps briefly when both queues are empty.
//
// # Quick Start
//
//	pool, err := ringpool.New(ringpool.WithNumWorkers(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	// Fire and forget
//	if !pool.PostFunc(func(workerID int) {
//	    fmt.Println("hello from worker", workerID)
//	}) {
//	    // the chosen worker's queue is full
//	}
//
//	// With a result
//	fut, err := ringpool.Process(pool, func(workerID int) (int, error) {
//	    return 42, nil
//	})
//	if err == nil {
//	    v, err := fut.Get()
//	    fmt.Println(v, err)
//	}
//
// # Tasks
//
// A Task is a fixed-size value that is moved, never shared, through the
// queues. It holds either a plain function (TaskFunc) or a Runner value
// (NewTask). Runners that also implement Releaser get their Release method
// called when the task is destroyed, whether or not it ran.
//
// # Backpressure
//
// Queues are bounded. Post returns false and Process returns ErrQueueFull when
// the worker picked by the dispatcher is full; the pool does not retry on
// another worker. Callers choose their own retry or drop policy.
//
// # Failures
//
// Panics raised by posted tasks are recovered by the worker and handed to the
// optional panic handler. Process converts a returned error or a panic
// (*PanicError) into the future's error. Panics raised by the OnStart and
// OnStop hooks are recovered and discarded.
//
// A task that calls runtime.Goexit does not take its worker down: it is
// counted as failed, reported as ErrTaskExited, and the worker carries on
// with a new goroutine.
//
// # Shutdown
//
// Close stops the workers one after the other and waits for each goroutine
// to exit. Tasks still queued at that point are destroyed without running;
// their Process futures resolve with ErrTaskDropped.
//
// # Thread Safety
//
// All exported methods of Pool and MPMCQueue are safe for concurrent use.
// Task values are not; each Task is owned by one goroutine at a time.
package ringpool
