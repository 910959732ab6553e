package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tahsin716/ringpool"
	"github.com/tahsin716/ringpool/internal/bench"
	"github.com/tahsin716/ringpool/internal/logger"
	"github.com/tahsin716/ringpool/metrics"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ringbench",
		Short: "Drive a ringpool worker pool with synthetic load",
		Long: `ringbench submits tasks to a fixed ring of workers with per-worker
bounded queues and work stealing, then reports throughput, retries caused by
full queues and how the work was spread across workers.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	bindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newRunCmd(), newConfigCmd())
	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), cfg)
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one load test and print the result as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBench(ctx, cfg, cmd.OutOrStdout())
		},
	}
}

// runBench owns the lifecycle of the logger, the pool and the metrics
// endpoint for one run.
func runBench(ctx context.Context, cfg Config, out io.Writer) error {
	log, closer, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := append(cfg.poolOptions(),
		ringpool.WithLogger(log),
		ringpool.WithPanicHandler(func(workerID int, v any) {
			log.Error("task panicked", "worker", workerID, "panic", v)
		}),
	)
	pool, err := ringpool.New(opts...)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, pool, log)
		defer shutdown()
	}

	runner, err := bench.NewRunner(pool, cfg.Bench, log)
	if err != nil {
		return err
	}

	res, runErr := runner.Run(ctx)
	if err := writeYAML(out, res); err != nil {
		return err
	}
	return runErr
}

// serveMetrics exposes the pool collector and the Go runtime collectors.
// The returned function shuts the server down.
func serveMetrics(addr string, pool *ringpool.Pool, log *slog.Logger) func() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		metrics.NewCollector(pool, "ringbench"),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown", "error", err)
		}
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
