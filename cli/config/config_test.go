package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockpipe.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	yaml := `pipeline:
  name: stock_pipeline
  symbols: [AAPL, MSFT, GOOGL]
  lookback_days: 365
  mode: incremental

storage:
  dataset: stock_pipeline
  backend: s3
  path: my-bucket/prefix
  region: us-east-1
  endpoint: https://example.com
  s3_path_style: true

adapter:
  type: webhook
  url: https://hooks.example.com/stockpipe
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "pipeline.name", cfg.Pipeline.Name, "stock_pipeline")
	if len(cfg.Pipeline.Symbols) != 3 || cfg.Pipeline.Symbols[0] != "AAPL" {
		t.Errorf("pipeline.symbols = %v", cfg.Pipeline.Symbols)
	}
	if cfg.Pipeline.LookbackDays != 365 {
		t.Errorf("pipeline.lookback_days = %d, want 365", cfg.Pipeline.LookbackDays)
	}
	assertEqual(t, "pipeline.mode", cfg.Pipeline.Mode, "incremental")

	assertEqual(t, "storage.backend", cfg.Storage.Backend, "s3")
	assertEqual(t, "storage.path", cfg.Storage.Path, "my-bucket/prefix")
	assertEqual(t, "storage.region", cfg.Storage.Region, "us-east-1")
	assertEqual(t, "storage.endpoint", cfg.Storage.Endpoint, "https://example.com")
	if !cfg.Storage.S3PathStyle {
		t.Error("expected storage.s3_path_style=true")
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/stockpipe")
	assertEqual(t, "adapter.headers", cfg.Adapter.Headers["Authorization"], "Bearer token123")
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("adapter.timeout = %v, want 10s", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 3 {
		t.Errorf("adapter.retries = %v, want 3", cfg.Adapter.Retries)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "pipeline: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("STOCKPIPE_BUCKET", "prod-bucket")
	yaml := `storage:
  backend: s3
  path: ${STOCKPIPE_BUCKET}/data
  region: ${STOCKPIPE_REGION:-us-west-2}
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "storage.path", cfg.Storage.Path, "prod-bucket/data")
	assertEqual(t, "storage.region", cfg.Storage.Region, "us-west-2")
}

func TestDuration_Invalid(t *testing.T) {
	path := writeTemp(t, "adapter:\n  timeout: banana\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid duration")
	}
}
