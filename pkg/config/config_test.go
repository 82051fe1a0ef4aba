package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Engine.BucketCount != 60 || cfg.Engine.ParallelParts != 4 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Redis.Enabled || cfg.Kafka.Enabled {
		t.Error("redis and kafka should be disabled by default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9000
engine:
  stopWords: [in, the]
  defaultPolicy: parallel
redis:
  enabled: true
  cacheTTL: 30s
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SP_SERVER_PORT", "9100")
	t.Setenv("SP_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("env override ignored: port = %d", cfg.Server.Port)
	}
	if diff := cmp.Diff([]string{"in", "the"}, cfg.Engine.StopWords); diff != "" {
		t.Errorf("stop words (-want +got):\n%s", diff)
	}
	if cfg.Engine.DefaultPolicy != "parallel" || !cfg.Redis.Enabled || cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Engine.DefaultPolicy = "turbo"
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
