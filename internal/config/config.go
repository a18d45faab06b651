// Package config loads server configuration from layered sources with precedence:
//  1. Environment variables (highest priority).
//  2. Optional YAML config file.
//  3. Built-in defaults (lowest priority).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// placeholderAPIKey is the sample key shipped in example configs; it never enables AI.
const placeholderAPIKey = "your-openai-api-key"

// Config holds the application configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Logger    LoggerConfig    `koanf:"logger"`
	Data      DataConfig      `koanf:"data"`
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	AI        AIConfig        `koanf:"ai"`
	Covers    CoversConfig    `koanf:"covers"`
	Search    SearchConfig    `koanf:"search"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // empty derives from environment
}

// DataConfig holds on-disk storage locations.
type DataConfig struct {
	// Path is the base directory for the database, search index, cover cache and auth key.
	Path string `koanf:"path"`
}

// DatabasePath returns the SQLite file location.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.Path, "bookreview.db") }

// SearchIndexPath returns the Bleve index directory.
func (d DataConfig) SearchIndexPath() string { return filepath.Join(d.Path, "search") }

// CoverCachePath returns the Badger cover cache directory.
func (d DataConfig) CoverCachePath() string { return filepath.Join(d.Path, "cache", "covers") }

// AuthKeyPath returns the PASETO key file location.
func (d DataConfig) AuthKeyPath() string { return filepath.Join(d.Path, "auth.key") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         string        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

// AuthConfig holds access-token configuration.
type AuthConfig struct {
	// AccessTokenKey is the hex-encoded PASETO v4 symmetric key. When empty the
	// key is loaded from (or generated into) the data directory.
	AccessTokenKey      string        `koanf:"access_token_key"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

// AIConfig holds OpenAI-compatible chat-completions configuration.
type AIConfig struct {
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	MaxTokens   int           `koanf:"max_tokens"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
	// RequestsPerSecond paces outbound calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// Enabled reports whether a usable API key is configured.
func (a AIConfig) Enabled() bool {
	key := strings.TrimSpace(a.APIKey)
	return key != "" && key != placeholderAPIKey
}

// CoversConfig holds Open Library cover lookup configuration.
type CoversConfig struct {
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// SearchConfig holds catalog search configuration.
type SearchConfig struct {
	Enabled       bool `koanf:"enabled"`
	RebuildOnBoot bool `koanf:"rebuild_on_boot"`
}

// RateLimitConfig holds inbound API rate limits.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

func defaultConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{Path: "~/.bookreview"},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Auth: AuthConfig{AccessTokenDuration: 24 * time.Hour},
		AI: AIConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-3.5-turbo",
			MaxTokens:         150,
			Temperature:       0.7,
			Timeout:           15 * time.Second,
			RequestsPerSecond: 2,
		},
		Covers: CoversConfig{
			BaseURL:  "https://openlibrary.org",
			Timeout:  5 * time.Second,
			CacheTTL: 7 * 24 * time.Hour,
		},
		Search:    SearchConfig{Enabled: true, RebuildOnBoot: true},
		RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 20, Burst: 40},
	}
}

// Load resolves the config file from CONFIG_PATH or the default locations
// and loads the layered configuration.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile loads defaults, then path (when non-empty), then the environment.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	expanded, err := expandPath(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	cfg.Data.Path = expanded

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are present and within range.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Logger.Format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty")
	}
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}
	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("invalid ai max tokens: %d", c.AI.MaxTokens)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("invalid ai temperature: %v (must be between 0 and 2)", c.AI.Temperature)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive requests_per_second and burst")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// splitSliceFields turns comma-separated env values into slices.
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"env":                    "app.environment",
	"log_level":              "logger.level",
	"log_format":             "logger.format",
	"data_path":              "data.path",
	"server_host":            "server.host",
	"server_port":            "server.port",
	"server_read_timeout":    "server.read_timeout",
	"server_write_timeout":   "server.write_timeout",
	"server_idle_timeout":    "server.idle_timeout",
	"cors_origins":           "server.cors_origins",
	"access_token_key":       "auth.access_token_key",
	"access_token_duration":  "auth.access_token_duration",
	"openai_api_key":         "ai.api_key",
	"openai_base_url":        "ai.base_url",
	"openai_model":           "ai.model",
	"openai_max_tokens":      "ai.max_tokens",
	"openai_temperature":     "ai.temperature",
	"openai_timeout":         "ai.timeout",
	"openai_rps":             "ai.requests_per_second",
	"covers_base_url":        "covers.base_url",
	"covers_timeout":         "covers.timeout",
	"covers_cache_ttl":       "covers.cache_ttl",
	"search_enabled":         "search.enabled",
	"search_rebuild_on_boot": "search.rebuild_on_boot",
	"rate_limit_enabled":     "rate_limit.enabled",
	"rate_limit_rps":         "rate_limit.requests_per_second",
	"rate_limit_burst":       "rate_limit.burst",
}

// envTransformFunc maps environment variable names to config paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}
