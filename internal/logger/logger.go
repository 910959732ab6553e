// Package logger builds the slog.Logger used by ringbench.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Format names accepted by Config.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config describes where and how records are written.
type Config struct {
	// Level is one of TRACE, DEBUG, INFO, WARNING, ERROR, OFF.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" yaml:"format"`

	// FilePath enables a rotated log file. Empty means stderr.
	FilePath string `mapstructure:"file-path" yaml:"file-path"`

	// MaxSizeMB, MaxBackups and MaxAgeDays control rotation of FilePath.
	MaxSizeMB  int  `mapstructure:"max-size-mb" yaml:"max-size-mb"`
	MaxBackups int  `mapstructure:"max-backups" yaml:"max-backups"`
	MaxAgeDays int  `mapstructure:"max-age-days" yaml:"max-age-days"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// DefaultConfig logs INFO text records to stderr.
func DefaultConfig() Config {
	return Config{
		Level:      "INFO",
		Format:     FormatText,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
}

// New returns a logger for cfg. The returned closer releases the log file,
// if any, and must be called on shutdown.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w, closer = lj, lj
	}

	l, err := NewWithWriter(cfg, w)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return l, closer, nil
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(cfg Config, w io.Writer) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	if err := setLoggingLevel(cfg.Level, level); err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
}

// LevelTrace is below slog.LevelDebug so that everything is logged.
const LevelTrace = slog.Level(-8)

// levelOff is above every level slog defines.
const levelOff = slog.Level(12)

func setLoggingLevel(level string, programLevel *slog.LevelVar) error {
	// logs having severity >= the configured value will be logged.
	switch strings.ToUpper(level) {
	case "TRACE":
		programLevel.Set(LevelTrace)
	case "DEBUG":
		programLevel.Set(slog.LevelDebug)
	case "", "INFO":
		programLevel.Set(slog.LevelInfo)
	case "WARNING", "WARN":
		programLevel.Set(slog.LevelWarn)
	case "ERROR":
		programLevel.Set(slog.LevelError)
	case "OFF":
		programLevel.Set(levelOff)
	default:
		return fmt.Errorf("unsupported log level %q", level)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
