package ringpool

import "fmt"

// Common errors returned by the pool.
var (
	// ErrPoolClosed is returned when submitting to a pool after Close.
	//
	// Example:
	//  pool.Close()
	//  _, err := ringpool.Process(pool, fn)
	//  if errors.Is(err, ringpool.ErrPoolClosed) {
	//      log.Println("Cannot submit: pool is closed")
	//  }
	ErrPoolClosed = &PoolError{msg: "pool is closed"}

	// ErrQueueFull is returned by Process when the worker chosen by the
	// round-robin dispatcher has no free slot. The pool never retries on
	// another worker; the caller owns the retry policy.
	//
	// Example:
	//  fut, err := ringpool.Process(pool, fn)
	//  for errors.Is(err, ringpool.ErrQueueFull) {
	//      time.Sleep(time.Millisecond)
	//      fut, err = ringpool.Process(pool, fn)
	//  }
	ErrQueueFull = &PoolError{msg: "worker queue is full"}

	// ErrNilTask is returned when a nil function is submitted.
	ErrNilTask = &PoolError{msg: "task is nil"}

	// ErrEmptyTask is returned by Task.Invoke when the task holds no callable.
	ErrEmptyTask = &PoolError{msg: "empty callable invoked"}

	// ErrTaskTooLarge is the panic value used by NewTask when a runner value
	// does not fit into TaskStorageSize.
	ErrTaskTooLarge = &PoolError{msg: "callable does not fit into task storage"}

	// ErrTaskExited reports a task that ended its goroutine with
	// runtime.Goexit instead of returning.
	ErrTaskExited = &PoolError{msg: "task called runtime.Goexit"}

	// ErrTaskDropped resolves the future of a task that was still queued when
	// the pool was closed and therefore never ran.
	ErrTaskDropped = &PoolError{msg: "task dropped on pool close"}
)

// PoolError represents an error that occurred within the worker pool.
// It wraps underlying errors and provides context about pool operations.
//
// PoolError implements the error interface and supports error unwrapping
// via errors.Unwrap.
type PoolError struct {
	msg string // Human-readable error message
	err error  // Underlying error (if any)
}

// Error returns a formatted error message.
// If an underlying error exists, it is included in the output.
func (e *PoolError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("ringpool: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("ringpool: %s", e.msg)
}

// Unwrap returns the underlying error, allowing use with errors.Is and errors.As.
func (e *PoolError) Unwrap() error {
	return e.err
}

// PanicError carries a value recovered from a panicking task together with
// the stack of the goroutine that panicked. Process futures report task
// panics as *PanicError.
type PanicError struct {
	Value    any
	Stack    string
	WorkerID int
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("ringpool: task panicked on worker %d: %v", p.WorkerID, p.Value)
}

// Unwrap exposes the panic value when it is itself an error, so that
// errors.Is matches a panic(err) against err.
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// errInvalidConfig creates an error for invalid pool configuration.
// This is returned during pool creation when validation fails.
func errInvalidConfig(msg string) error {
	return &PoolError{msg: "invalid config: " + msg}
}
