package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONWithProfileField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wuzd.log")
	logger, err := New(path, "ops", Options{Level: zapcore.InfoLevel})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("poll tick", zap.String("loop", "admin"))
	logger.Debug("below level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["profile"] != "ops" || entry["loop"] != "admin" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("missing ts field")
	}
}
