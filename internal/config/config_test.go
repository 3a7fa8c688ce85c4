package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIURL != "https://elantil-fe-task.directus.app" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}
	if cfg.Cache.Capacity != 512 {
		t.Errorf("Cache.Capacity = %d, want 512", cfg.Cache.Capacity)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("Retry.MaxRetries = %d, want 3", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.InitialDelay != time.Second {
		t.Errorf("Retry.InitialDelay = %v, want 1s", cfg.Retry.InitialDelay)
	}
	if cfg.Retry.MaxDelay != 10*time.Second {
		t.Errorf("Retry.MaxDelay = %v, want 10s", cfg.Retry.MaxDelay)
	}
	if cfg.Retry.Multiplier != 2.0 {
		t.Errorf("Retry.Multiplier = %v, want 2.0", cfg.Retry.Multiplier)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CATALOG_API_URL", "http://localhost:9000")
	t.Setenv("CATALOG_API_TOKEN", "env-token")
	t.Setenv("CATALOG_REDIS_ADDR", "localhost:6379")
	t.Setenv("CATALOG_CACHE_TTL", "90s")
	t.Setenv("CATALOG_RETRY_MAX_RETRIES", "5")
	t.Setenv("CATALOG_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIURL != "http://localhost:9000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.APIToken != "env-token" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("Retry.MaxRetries = %d, want 5", cfg.Retry.MaxRetries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `api_url: http://cms.internal:8055
listen_addr: ":9090"
cache:
  ttl: 2m
  capacity: 128
retry:
  max_retries: 1
logging:
  level: warn
  pretty: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIURL != "http://cms.internal:8055" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("Cache.TTL = %v, want 2m", cfg.Cache.TTL)
	}
	if cfg.Cache.Capacity != 128 {
		t.Errorf("Cache.Capacity = %d, want 128", cfg.Cache.Capacity)
	}
	if !cfg.Logging.Pretty {
		t.Error("Logging.Pretty = false, want true")
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load with missing file succeeded, want error")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid log level",
			env:     map[string]string{"CATALOG_LOGGING_LEVEL": "verbose"},
			wantErr: "logging.level",
		},
		{
			name:    "zero cache ttl",
			env:     map[string]string{"CATALOG_CACHE_TTL": "0s"},
			wantErr: "cache.ttl",
		},
		{
			name:    "negative retries",
			env:     map[string]string{"CATALOG_RETRY_MAX_RETRIES": "-1"},
			wantErr: "retry.max_retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			_, err := Load("")
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
