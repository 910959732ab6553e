package ringpool

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, runtime.NumCPU(), cfg.NumWorkers)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.Equal(t, DefaultIdleSleep, cfg.IdleSleep)
	assert.True(t, cfg.LockOSThread)
	assert.False(t, cfg.PinCPU)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "zero workers allowed",
			modify: func(c *Config) { c.NumWorkers = 0 },
		},
		{
			name:    "negative workers",
			modify:  func(c *Config) { c.NumWorkers = -1 },
			wantErr: "ringpool: invalid config: NumWorkers must be >= 0",
		},
		{
			name:    "negative queue size",
			modify:  func(c *Config) { c.QueueSize = -8 },
			wantErr: "ringpool: invalid config: QueueSize must be >= 0",
		},
		{
			name:    "queue size too large",
			modify:  func(c *Config) { c.QueueSize = MaxQueueSize + 1 },
			wantErr: "ringpool: invalid config: QueueSize must be <= MaxQueueSize",
		},
		{
			name:   "max queue size allowed",
			modify: func(c *Config) { c.QueueSize = MaxQueueSize },
		},
		{
			name:    "zero idle sleep",
			modify:  func(c *Config) { c.IdleSleep = 0 },
			wantErr: "ringpool: invalid config: IdleSleep must be > 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{IdleSleep: time.Millisecond, PinCPU: true}
	cfg.normalize()

	assert.Equal(t, runtime.NumCPU(), cfg.NumWorkers)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.True(t, cfg.LockOSThread)
	assert.NotNil(t, cfg.Logger)
}

func TestOptions(t *testing.T) {
	onStart := func(int) {}
	onStop := func(int) {}
	handler := func(int, any) {}

	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithNumWorkers(6),
		WithQueueSize(33),
		WithHooks(onStart, onStop),
		WithIdleSleep(5 * time.Millisecond),
		WithLockOSThread(false),
		WithCPUAffinity(true),
		WithPanicHandler(handler),
	} {
		opt(&cfg)
	}

	assert.Equal(t, 6, cfg.NumWorkers)
	assert.Equal(t, 33, cfg.QueueSize)
	assert.NotNil(t, cfg.OnStart)
	assert.NotNil(t, cfg.OnStop)
	assert.Equal(t, 5*time.Millisecond, cfg.IdleSleep)
	assert.False(t, cfg.LockOSThread)
	assert.True(t, cfg.PinCPU)
	assert.NotNil(t, cfg.PanicHandler)
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := map[int]int{-1: 1, 0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128}
	for in, want := range tests {
		assert.Equal(t, want, nextPowerOfTwo(in), "nextPowerOfTwo(%d)", in)
	}
}
