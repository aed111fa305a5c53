package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Checker  CheckerConfig  `toml:"checker"`
	Database DatabaseConfig `toml:"database"`
}

// CheckerConfig contains settings for the remote checker backend and the local input policy.
type CheckerConfig struct {
	BaseURL         string  `toml:"base_url"`
	MaxBatchSize    int     `toml:"max_batch_size"`
	MinCookieLength int     `toml:"min_cookie_length"`
	RequestTimeout  int     `toml:"request_timeout_seconds"`
	RateLimit       float64 `toml:"rate_limit"`
}

// DatabaseConfig contains local cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A .env file in the working directory and CKX_* environment variables override
// file values, so deployments can point at a different backend without editing
// the config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&config)

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	applyEnvOverrides(&config)
	return &config
}

// SaveConfig writes the configuration to the specified path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvOverrides layers .env and process environment values over the loaded config.
func applyEnvOverrides(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("CKX_BASE_URL"); v != "" {
		config.Checker.BaseURL = v
	}
	if v := os.Getenv("CKX_DATABASE_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv("CKX_MAX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Checker.MaxBatchSize = n
		}
	}
	if v := os.Getenv("CKX_MIN_COOKIE_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Checker.MinCookieLength = n
		}
	}
	if v := os.Getenv("CKX_REQUEST_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Checker.RequestTimeout = n
		}
	}
}
