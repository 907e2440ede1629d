package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"pagetrail/internal/config"
)

func TestNewWritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pagetrail.log")
	logger, err := New(config.LogConfig{
		Level:      "debug",
		Output:     "file",
		FilePath:   path,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("badge earned")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log file to contain an entry")
	}
}

func TestNewFallsBackToInfoLevel(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "chatty", Output: "stdout"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level should be disabled when level is unparseable")
	}
}

func TestConsoleSyncer(t *testing.T) {
	tests := []struct {
		output string
		want   *os.File
		wantOK bool
	}{
		{output: "", want: os.Stderr, wantOK: true},
		{output: "stderr", want: os.Stderr, wantOK: true},
		{output: "both", want: os.Stderr, wantOK: true},
		{output: "stdout", want: os.Stdout, wantOK: true},
		{output: "file", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			got, ok := consoleSyncer(tt.output)
			if ok != tt.wantOK {
				t.Fatalf("consoleSyncer(%q) ok = %v, want %v", tt.output, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if file, _ := got.(*os.File); file != tt.want {
				t.Errorf("consoleSyncer(%q) = %v, want %v", tt.output, got, tt.want.Name())
			}
		})
	}
}
