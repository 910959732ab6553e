package main

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tahsin716/ringpool"
	"github.com/tahsin716/ringpool/internal/bench"
	"github.com/tahsin716/ringpool/internal/logger"
)

const envPrefix = "RINGBENCH"

// Config is the effective ringbench configuration after merging flags,
// environment and the optional YAML file.
type Config struct {
	Workers     int           `mapstructure:"workers" yaml:"workers"`
	QueueSize   int           `mapstructure:"queue-size" yaml:"queue-size"`
	IdleSleep   time.Duration `mapstructure:"idle-sleep" yaml:"idle-sleep"`
	PinCPU      bool          `mapstructure:"pin-cpu" yaml:"pin-cpu"`
	MetricsAddr string        `mapstructure:"metrics-addr" yaml:"metrics-addr"`

	Bench   bench.Config  `mapstructure:",squash" yaml:",inline"`
	Logging logger.Config `mapstructure:"logging" yaml:"logging"`
}

// bindFlags declares every configuration flag on fs.
func bindFlags(fs *flag.FlagSet) {
	defBench := bench.DefaultConfig()
	defLog := logger.DefaultConfig()

	fs.Int("workers", runtime.NumCPU(), "Number of pool workers.")
	fs.Int("queue-size", ringpool.DefaultQueueSize, "Per-worker queue capacity, rounded up to a power of two.")
	fs.Duration("idle-sleep", ringpool.DefaultIdleSleep, "Backoff of a worker that found no work.")
	fs.Bool("pin-cpu", false, "Pin each worker thread to a CPU (Linux only).")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090.")

	fs.Int("producers", defBench.Producers, "Number of submitting goroutines.")
	fs.Int("tasks", defBench.Tasks, "Total number of tasks to submit.")
	fs.Float64("rate", defBench.Rate, "Submission rate limit in tasks per second, 0 for unlimited.")
	fs.Duration("task-duration", defBench.TaskDuration, "Time each task sleeps.")
	fs.String("mode", string(defBench.Mode), "Submission path: post or process.")

	fs.String("log-level", defLog.Level, "TRACE, DEBUG, INFO, WARNING, ERROR or OFF.")
	fs.String("log-format", defLog.Format, "text or json.")
	fs.String("log-file", "", "Write logs to this file with rotation instead of stderr.")
}

// flagKeys maps flags onto nested configuration keys.
var flagKeys = map[string]string{
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"log-file":   "logging.file-path",
}

// decodeHook converts strings from flags, env and YAML into typed fields.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// loadConfig merges the flags of cmd with RINGBENCH_* environment variables
// and the file named by --config. Explicit flags win over env, env over file.
func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "help" {
			return
		}
		key := f.Name
		if nested, ok := flagKeys[f.Name]; ok {
			key = nested
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("binding flag %q: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return Config{}, bindErr
	}

	// Defaults for the rotation settings that have no flag.
	defLog := logger.DefaultConfig()
	v.SetDefault("logging.max-size-mb", defLog.MaxSizeMB)
	v.SetDefault("logging.max-backups", defLog.MaxBackups)
	v.SetDefault("logging.max-age-days", defLog.MaxAgeDays)
	v.SetDefault("logging.compress", defLog.Compress)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error while reading the config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return Config{}, fmt.Errorf("error while unmarshaling the config: %w", err)
	}
	return cfg, nil
}

// poolOptions translates cfg into pool options.
func (c Config) poolOptions() []ringpool.Option {
	return []ringpool.Option{
		ringpool.WithNumWorkers(c.Workers),
		ringpool.WithQueueSize(c.QueueSize),
		ringpool.WithIdleSleep(c.IdleSleep),
		ringpool.WithCPUAffinity(c.PinCPU),
	}
}
