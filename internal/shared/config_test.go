package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Checker.BaseURL != "http://localhost:5000" {
			t.Errorf("expected base URL http://localhost:5000, got %s", config.Checker.BaseURL)
		}

		if config.Checker.MaxBatchSize != 3000 {
			t.Errorf("expected max batch size 3000, got %d", config.Checker.MaxBatchSize)
		}

		if config.Checker.MinCookieLength != 50 {
			t.Errorf("expected min cookie length 50, got %d", config.Checker.MinCookieLength)
		}

		if config.Checker.RequestTimeout != 30 {
			t.Errorf("expected request timeout 30, got %d", config.Checker.RequestTimeout)
		}

		if config.Database.Path != "ckx.db" {
			t.Errorf("expected database path ckx.db, got %s", config.Database.Path)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[checker]
base_url = "http://checker.internal:5000"
max_batch_size = 500
min_cookie_length = 40
request_timeout_seconds = 10
rate_limit = 2.5

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Checker.BaseURL != "http://checker.internal:5000" {
			t.Errorf("base URL = %s", config.Checker.BaseURL)
		}
		if config.Checker.RateLimit != 2.5 {
			t.Errorf("rate limit = %f", config.Checker.RateLimit)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("database path = %s", config.Database.Path)
		}
	})

	t.Run("LoadConfigMissingFile", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("CKX_BASE_URL", "http://override:5000")
		t.Setenv("CKX_MAX_BATCH_SIZE", "100")
		t.Setenv("CKX_DATABASE_PATH", "/tmp/override.db")

		config := DefaultConfig()

		if config.Checker.BaseURL != "http://override:5000" {
			t.Errorf("base URL override not applied: %s", config.Checker.BaseURL)
		}
		if config.Checker.MaxBatchSize != 100 {
			t.Errorf("batch size override not applied: %d", config.Checker.MaxBatchSize)
		}
		if config.Database.Path != "/tmp/override.db" {
			t.Errorf("database path override not applied: %s", config.Database.Path)
		}
	})

	t.Run("MalformedEnvOverrideIgnored", func(t *testing.T) {
		t.Setenv("CKX_MAX_BATCH_SIZE", "not-a-number")

		config := DefaultConfig()
		if config.Checker.MaxBatchSize != 3000 {
			t.Errorf("malformed override changed batch size: %d", config.Checker.MaxBatchSize)
		}
	})

	t.Run("SaveConfigRoundTrip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Checker.BaseURL = "http://saved:5000"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Checker.BaseURL != "http://saved:5000" {
			t.Errorf("round-tripped base URL = %s", loaded.Checker.BaseURL)
		}
	})
}
