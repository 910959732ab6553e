package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantError bool
	}{
		{level: "TRACE", wantDebug: true, wantInfo: true, wantError: true},
		{level: "DEBUG", wantDebug: true, wantInfo: true, wantError: true},
		{level: "info", wantInfo: true, wantError: true},
		{level: "WARNING", wantError: true},
		{level: "ERROR", wantError: true},
		{level: "OFF"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := NewWithWriter(Config{Level: tt.level, Format: FormatText}, &buf)
			require.NoError(t, err)

			l.Debug("debug-msg")
			l.Info("info-msg")
			l.Error("error-msg")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug-msg")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info-msg")))
			assert.Equal(t, tt.wantError, bytes.Contains(buf.Bytes(), []byte("error-msg")))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "INFO", Format: FormatJSON}, &buf)
	require.NoError(t, err)

	l.Info("hello", "worker", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, float64(3), rec["worker"])
}

func TestNewWithWriter_Invalid(t *testing.T) {
	_, err := NewWithWriter(Config{Level: "LOUD"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithWriter(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringbench.log")
	cfg := DefaultConfig()
	cfg.FilePath = path

	l, closer, err := New(cfg)
	require.NoError(t, err)
	l.Info("to file")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to file")
}
