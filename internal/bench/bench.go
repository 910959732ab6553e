// Package bench drives a ringpool.Pool with synthetic load.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tahsin716/ringpool"
)

// Mode selects the submission path exercised by a run.
type Mode string

const (
	ModePost    Mode = "post"
	ModeProcess Mode = "process"
)

// Config describes one load run.
type Config struct {
	Producers    int           `mapstructure:"producers" yaml:"producers"`
	Tasks        int           `mapstructure:"tasks" yaml:"tasks"`
	Rate         float64       `mapstructure:"rate" yaml:"rate"`
	TaskDuration time.Duration `mapstructure:"task-duration" yaml:"task-duration"`
	Mode         Mode          `mapstructure:"mode" yaml:"mode"`
}

// DefaultConfig returns a short unthrottled run.
func DefaultConfig() Config {
	return Config{
		Producers: runtime.NumCPU(),
		Tasks:     100000,
		Mode:      ModePost,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Producers <= 0:
		return fmt.Errorf("producers must be > 0, got %d", c.Producers)
	case c.Tasks < 0:
		return fmt.Errorf("tasks must be >= 0, got %d", c.Tasks)
	case c.Rate < 0:
		return fmt.Errorf("rate must be >= 0, got %v", c.Rate)
	case c.TaskDuration < 0:
		return fmt.Errorf("task-duration must be >= 0, got %v", c.TaskDuration)
	case c.Mode != ModePost && c.Mode != ModeProcess:
		return fmt.Errorf("mode must be %q or %q, got %q", ModePost, ModeProcess, c.Mode)
	}
	return nil
}

// Result summarizes a finished run.
type Result struct {
	RunID      string         `yaml:"run-id"`
	Mode       Mode           `yaml:"mode"`
	Tasks      int            `yaml:"tasks"`
	Completed  int64          `yaml:"completed"`
	Failed     int64          `yaml:"failed"`
	Retries    int64          `yaml:"retries"`
	Elapsed    time.Duration  `yaml:"elapsed"`
	Throughput float64        `yaml:"throughput"`
	PerWorker  []uint64       `yaml:"per-worker"`
	Stolen     uint64         `yaml:"stolen"`
	Stats      ringpool.Stats `yaml:"-"`
}

// Runner submits cfg.Tasks tasks to a pool from cfg.Producers goroutines.
type Runner struct {
	pool    *ringpool.Pool
	cfg     Config
	logger  *slog.Logger
	limiter *rate.Limiter

	completed atomic.Int64
	failed    atomic.Int64
	retries   atomic.Int64
}

// NewRunner validates cfg and returns a Runner bound to p.
func NewRunner(p *ringpool.Pool, cfg Config, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := &Runner{pool: p, cfg: cfg, logger: logger}
	if cfg.Rate > 0 {
		burst := int(cfg.Rate) / 10
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	return r, nil
}

// Run blocks until every task has completed or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	log := r.logger.With("run_id", runID)
	log.Info("run started",
		"mode", r.cfg.Mode, "tasks", r.cfg.Tasks, "producers", r.cfg.Producers,
		"workers", r.pool.NumWorkers(), "rate", r.cfg.Rate)

	before := r.pool.Stats()
	start := time.Now()

	var pending sync.WaitGroup
	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < r.cfg.Producers; p++ {
		n := r.share(p)
		g.Go(func() error {
			return r.produce(gctx, n, &pending)
		})
	}
	err := g.Wait()
	pending.Wait()
	elapsed := time.Since(start)

	after := r.pool.Stats()
	res := Result{
		RunID:     runID,
		Mode:      r.cfg.Mode,
		Tasks:     r.cfg.Tasks,
		Completed: r.completed.Load(),
		Failed:    r.failed.Load(),
		Retries:   r.retries.Load(),
		Elapsed:   elapsed,
		PerWorker: make([]uint64, len(after.Workers)),
		Stolen:    after.Stolen - before.Stolen,
		Stats:     after,
	}
	for i, ws := range after.Workers {
		res.PerWorker[i] = ws.Executed - before.Workers[i].Executed
	}
	if elapsed > 0 {
		res.Throughput = float64(res.Completed) / elapsed.Seconds()
	}

	if err != nil {
		log.Warn("run interrupted", "error", err, "completed", res.Completed)
		return res, err
	}
	log.Info("run finished",
		"completed", res.Completed, "failed", res.Failed, "retries", res.Retries,
		"elapsed", elapsed, "throughput", res.Throughput, "stolen", res.Stolen)
	return res, nil
}

// share returns how many tasks producer p submits.
func (r *Runner) share(p int) int {
	n := r.cfg.Tasks / r.cfg.Producers
	if p < r.cfg.Tasks%r.cfg.Producers {
		n++
	}
	return n
}

func (r *Runner) produce(ctx context.Context, n int, pending *sync.WaitGroup) error {
	for i := 0; i < n; i++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		pending.Add(1)
		if err := r.submit(ctx, pending); err != nil {
			pending.Done()
			return err
		}
	}
	return nil
}

// submit retries until the chosen worker accepts the task. The pool never
// falls back to another worker on a full queue, so the retry lives here.
func (r *Runner) submit(ctx context.Context, pending *sync.WaitGroup) error {
	for {
		var err error
		switch r.cfg.Mode {
		case ModeProcess:
			err = r.submitProcess(pending)
		default:
			err = r.submitPost(pending)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, ringpool.ErrQueueFull) {
			return err
		}

		r.retries.Add(1)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		runtime.Gosched()
	}
}

func (r *Runner) submitPost(pending *sync.WaitGroup) error {
	if r.pool.IsClosed() {
		return ringpool.ErrPoolClosed
	}
	ok := r.pool.PostFunc(func(workerID int) {
		defer pending.Done()
		r.work()
		r.completed.Add(1)
	})
	if !ok {
		return ringpool.ErrQueueFull
	}
	return nil
}

func (r *Runner) submitProcess(pending *sync.WaitGroup) error {
	fut, err := ringpool.Process(r.pool, func(workerID int) (int, error) {
		r.work()
		return workerID, nil
	})
	if err != nil {
		return err
	}

	go func() {
		defer pending.Done()
		if _, err := fut.Get(); err != nil {
			r.failed.Add(1)
			return
		}
		r.completed.Add(1)
	}()
	return nil
}

func (r *Runner) work() {
	if r.cfg.TaskDuration > 0 {
		time.Sleep(r.cfg.TaskDuration)
	}
}
