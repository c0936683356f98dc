package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(EnvStoreDriver, "")
	t.Setenv(EnvStoreDSN, "")
	t.Setenv(EnvStorageDir, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("driver = %q", cfg.Store.Driver)
	}
	if cfg.Search.DefaultPageSize != 50 {
		t.Errorf("default_page_size = %d", cfg.Search.DefaultPageSize)
	}
	if cfg.Search.StoreTimeout.Duration != 10*time.Second {
		t.Errorf("store_timeout = %v", cfg.Search.StoreTimeout)
	}
	if want := filepath.Join(cfg.StorageDir, "catalog.db"); cfg.StoreDSN() != want {
		t.Errorf("dsn = %q, want %q", cfg.StoreDSN(), want)
	}
	if cfg.Addr() != "localhost:8080" {
		t.Errorf("addr = %q", cfg.Addr())
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvStoreDriver, "")
	t.Setenv(EnvStoreDSN, "")
	t.Setenv(EnvStorageDir, "")

	path := filepath.Join(dir, "conf", "config.toml")
	c := &Config{StorageDir: filepath.Join(dir, "data")}
	if err := c.SaveTemplateConfig(path); err != nil {
		t.Fatalf("SaveTemplateConfig: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StorageDir != filepath.Join(dir, "data") {
		t.Errorf("storage_dir = %q", cfg.StorageDir)
	}
	if cfg.Server.RateLimit != 20 || cfg.Server.RateBurst != 40 {
		t.Errorf("rate = %v/%d", cfg.Server.RateLimit, cfg.Server.RateBurst)
	}
	if cfg.Search.ProjectionWorkers != 8 {
		t.Errorf("projection_workers = %d", cfg.Search.ProjectionWorkers)
	}
	if cfg.Store.OptimizeInterval.Duration != time.Hour {
		t.Errorf("optimize_interval = %v", cfg.Store.OptimizeInterval)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
storage_dir = "/tmp/from-file"
[store]
driver = "sqlite"
dsn = "/tmp/from-file/catalog.db"
`)
	t.Setenv(EnvStoreDriver, "postgres")
	t.Setenv(EnvStoreDSN, "postgres://localhost/catalog")
	t.Setenv(EnvStorageDir, dir)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Driver != "postgres" || cfg.StoreDSN() != "postgres://localhost/catalog" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.StorageDir != dir {
		t.Errorf("storage_dir = %q", cfg.StorageDir)
	}
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", EnvStoreDSN+"=/tmp/dotenv.db\n")
	t.Setenv(EnvStoreDSN, "")
	os.Unsetenv(EnvStoreDSN)

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(EnvStoreDSN); got != "/tmp/dotenv.db" {
		t.Errorf("%s = %q", EnvStoreDSN, got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad driver", "[store]\ndriver = \"oracle\"\n", "store.driver"},
		{"page size", "[search]\ndefault_page_size = 501\n", "default_page_size"},
		{"port", "[server]\nport = 70000\n", "server.port"},
		{"rate", "[server]\nrate_limit = -1.0\n", "rate_limit"},
		{"bad duration", "[search]\nstore_timeout = \"soon\"\n", "unmarshaling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvStoreDriver, "")
			t.Setenv(EnvStorageDir, t.TempDir())
			path := writeFile(t, t.TempDir(), "config.toml", tt.content)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
