package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, line)
	}
	return entry
}

func TestLogger_BindsRunContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("a1b2c3d4", "stock_pipeline").WithOutput(&buf)

	logger.Info("starting run", map[string]any{"symbols": 3})

	entry := decodeLine(t, &buf)
	if entry["run_id"] != "a1b2c3d4" {
		t.Errorf("run_id = %v", entry["run_id"])
	}
	if entry["pipeline"] != "stock_pipeline" {
		t.Errorf("pipeline = %v", entry["pipeline"])
	}
	if entry["message"] != "starting run" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestSugaredLogger_FormatsAndKeepsContext(t *testing.T) {
	var buf bytes.Buffer
	sugar := NewLogger("a1b2c3d4", "stock_pipeline").WithOutput(&buf).Sugar()

	sugar.Debugf("run metrics: fetched=%d failed=%d", 5, 1)

	entry := decodeLine(t, &buf)
	if entry["message"] != "run metrics: fetched=5 failed=1" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["run_id"] != "a1b2c3d4" {
		t.Errorf("run_id = %v, want run context preserved through Sugar", entry["run_id"])
	}
}

func TestSugaredLogger_With(t *testing.T) {
	var buf bytes.Buffer
	sugar := NewLogger("a1b2c3d4", "stock_pipeline").WithOutput(&buf).Sugar().With("symbol", "AAPL")

	sugar.Warnf("fetch degraded")

	entry := decodeLine(t, &buf)
	if entry["symbol"] != "AAPL" {
		t.Errorf("symbol = %v", entry["symbol"])
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v", entry["level"])
	}
}
