package group

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.errorMode != CollectAll {
		t.Errorf("Expected default error mode %v, got %v", CollectAll, config.errorMode)
	}
}

func TestBuildConfig(t *testing.T) {
	config := BuildConfig([]Option{WithErrorMode(FailFast)})

	if config.errorMode != FailFast {
		t.Errorf("Expected error mode %v, got %v", FailFast, config.errorMode)
	}
}

func TestErrorModeString(t *testing.T) {
	tests := map[ErrorMode]string{
		FailFast:      "fail-fast",
		CollectAll:    "collect-all",
		IgnoreErrors:  "ignore",
		ErrorMode(99): "unknown",
	}
	for mode, want := range tests {
		if got := mode.String(); got != want {
			t.Errorf("ErrorMode(%d).String() = %q, want %q", int(mode), got, want)
		}
	}
}
