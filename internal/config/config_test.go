package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(write(t, "api:\n  baseURL: https://api.example.com\n"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Feed.PageSize != 20 || cfg.Suggestions.AllLimit != 8 || cfg.Suggestions.CategoryLimit != 30 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Blocklist.RefreshDuration != 5*time.Minute || cfg.API.TimeoutDuration != 10*time.Second {
		t.Fatalf("unexpected default durations %+v", cfg)
	}
	if cfg.Server.ListenAddr != ":8000" {
		t.Fatalf("unexpected listen addr %q", cfg.Server.ListenAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(write(t, `
api:
  baseURL: https://api.example.com
  timeout: 3s
suggestions:
  debounce: 1s
blocklist:
  refreshInterval: 1m
bus:
  redisAddr: localhost:6379
  kafkaBrokers: a:9092,b:9092
`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.API.TimeoutDuration != 3*time.Second || cfg.Suggestions.DebounceDuration != time.Second {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if cfg.Blocklist.RefreshDuration != time.Minute || cfg.Bus.KafkaBrokers != "a:9092,b:9092" {
		t.Fatalf("unexpected values %+v", cfg)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	if _, err := Load(write(t, "feed:\n  pageSize: 10\n")); err == nil {
		t.Fatalf("expected missing baseURL error")
	}
	if _, err := Load(write(t, "api:\n  baseURL: x\n  timeout: soon\n")); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}
