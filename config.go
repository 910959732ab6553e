package ringpool

import (
	"io"
	"log/slog"
	"runtime"
	"time"
)

const (
	// DefaultQueueSize is the per-worker queue capacity used when none is set.
	DefaultQueueSize = 1024

	// MaxQueueSize is the largest accepted per-worker queue capacity.
	MaxQueueSize = 1 << 30

	// DefaultIdleSleep is how long an idle worker sleeps after finding both
	// its own queue and its donor's queue empty.
	DefaultIdleSleep = time.Millisecond
)

// Config contains all configuration options for the worker pool
type Config struct {
	// NumWorkers is the number of workers, each with its own goroutine.
	// If 0, defaults to runtime.NumCPU()
	NumWorkers int

	// QueueSize is the capacity of each worker's queue.
	// Rounded up to a power of two. If 0, defaults to DefaultQueueSize
	QueueSize int

	// OnStart is called on the worker goroutine before it takes any task.
	// A panic raised by the hook is recovered and discarded.
	OnStart func(workerID int)

	// OnStop is called on the worker goroutine after its loop has exited.
	// A panic raised by the hook is recovered and discarded.
	OnStop func(workerID int)

	// IdleSleep is the backoff applied when a worker finds no local work and
	// nothing to steal. Defaults to DefaultIdleSleep
	IdleSleep time.Duration

	// LockOSThread wires each worker goroutine to its own OS thread for the
	// lifetime of the worker. Defaults to true
	LockOSThread bool

	// PinCPU pins each worker thread to CPU (id mod NumCPU).
	// Only effective on Linux and implies LockOSThread
	PinCPU bool

	// PanicHandler receives values recovered from tasks submitted with Post.
	// If nil, such panics are discarded
	PanicHandler func(workerID int, v any)

	// Logger receives debug records about worker lifecycle.
	// If nil, nothing is logged
	Logger *slog.Logger
}

// Option configures a Pool.
type Option func(*Config)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		NumWorkers:   runtime.NumCPU(),
		QueueSize:    DefaultQueueSize,
		IdleSleep:    DefaultIdleSleep,
		LockOSThread: true,
	}
}

// Validate checks the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.NumWorkers < 0 {
		return errInvalidConfig("NumWorkers must be >= 0")
	}

	if c.QueueSize < 0 {
		return errInvalidConfig("QueueSize must be >= 0")
	}

	if c.QueueSize > MaxQueueSize {
		return errInvalidConfig("QueueSize must be <= MaxQueueSize")
	}

	if c.IdleSleep <= 0 {
		return errInvalidConfig("IdleSleep must be > 0")
	}

	return nil
}

// normalize fills zero values with their defaults. Called after Validate.
func (c *Config) normalize() {
	if c.NumWorkers == 0 {
		c.NumWorkers = runtime.NumCPU()
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = 1
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.PinCPU {
		c.LockOSThread = true
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// WithNumWorkers sets the number of workers. Zero selects runtime.NumCPU().
func WithNumWorkers(n int) Option {
	return func(c *Config) {
		c.NumWorkers = n
	}
}

// WithQueueSize sets the capacity of each worker's queue.
func WithQueueSize(n int) Option {
	return func(c *Config) {
		c.QueueSize = n
	}
}

// WithHooks sets both worker lifecycle hooks.
//
// Example:
//
//	pool, _ := ringpool.New(
//	    ringpool.WithHooks(
//	        func(id int) { log.Printf("worker %d started", id) },
//	        func(id int) { log.Printf("worker %d stopped", id) },
//	    ),
//	)
func WithHooks(onStart, onStop func(workerID int)) Option {
	return func(c *Config) {
		c.OnStart = onStart
		c.OnStop = onStop
	}
}

// WithOnStart sets the hook run when a worker starts.
func WithOnStart(fn func(workerID int)) Option {
	return func(c *Config) {
		c.OnStart = fn
	}
}

// WithOnStop sets the hook run when a worker stops.
func WithOnStop(fn func(workerID int)) Option {
	return func(c *Config) {
		c.OnStop = fn
	}
}

// WithIdleSleep sets the idle backoff of the worker loop.
func WithIdleSleep(d time.Duration) Option {
	return func(c *Config) {
		c.IdleSleep = d
	}
}

// WithLockOSThread controls whether worker goroutines own an OS thread.
func WithLockOSThread(enabled bool) Option {
	return func(c *Config) {
		c.LockOSThread = enabled
	}
}

// WithCPUAffinity pins worker threads to CPUs.
//
// Note: this reduces Go scheduler flexibility and should only be used
// when profiling shows significant cache benefits.
func WithCPUAffinity(enabled bool) Option {
	return func(c *Config) {
		c.PinCPU = enabled
	}
}

// WithPanicHandler sets the handler for panics raised by posted tasks.
func WithPanicHandler(fn func(workerID int, v any)) Option {
	return func(c *Config) {
		c.PanicHandler = fn
	}
}

// WithLogger sets the logger used for worker lifecycle records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
