package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Values from the environment (prefixed with PODX_) take precedence over the file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upload   UploadConfig   `toml:"upload"`
	Library  LibraryConfig  `toml:"library"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig describes the remote media manager back end.
type ServerConfig struct {
	BaseURL           string   `toml:"base_url" env:"BASE_URL"`
	Timeout           Duration `toml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond float64  `toml:"requests_per_second" env:"RATE_LIMIT"`
}

// UploadConfig contains the upload queue allow-list and the wait for the server's reply.
//
// ResponseTimeout bounds the time between the last byte sent and the response; zero waits indefinitely.
type UploadConfig struct {
	Extensions      []string `toml:"extensions" env:"UPLOAD_EXTENSIONS" envSeparator:","`
	ResponseTimeout Duration `toml:"response_timeout" env:"UPLOAD_RESPONSE_TIMEOUT"`
}

// LibraryConfig contains library browsing settings.
type LibraryConfig struct {
	PageSize         int `toml:"page_size" env:"PAGE_SIZE"`
	SearchDebounceMS int `toml:"search_debounce_ms" env:"SEARCH_DEBOUNCE_MS"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig controls log verbosity and the TUI log file.
type LogConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
	File  string `toml:"file" env:"LOG_FILE"`
}

// Duration wraps [time.Duration] so it can be written as "30s" in TOML and environment variables.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// SearchDebounce returns the configured debounce interval for search inputs.
func (c LibraryConfig) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// ResolveConfig loads the config file at path, falling back to defaults when it does not exist,
// then applies the .env file and PODX_ environment overrides.
func ResolveConfig(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		config = DefaultConfig()
	}

	if err := ApplyEnv(config, ".env"); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv loads dotenv (if present) into the process environment and overlays PODX_ variables onto config.
func ApplyEnv(config *Config, dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: loading %s: %v", ErrInvalidConfig, dotenv, err)
		}
	}

	opts := env.Options{Prefix: "PODX_"}
	for _, target := range []any{&config.Server, &config.Upload, &config.Library, &config.Database, &config.Log} {
		if err := env.ParseWithOptions(target, opts); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Validate checks the values the client cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return fmt.Errorf("%w: server.base_url is required", ErrInvalidConfig)
	}
	if c.Library.PageSize <= 0 {
		return fmt.Errorf("%w: library.page_size must be positive", ErrInvalidConfig)
	}
	if len(c.Upload.Extensions) == 0 {
		return fmt.Errorf("%w: upload.extensions must not be empty", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
