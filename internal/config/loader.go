package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	pkgconfig "github.com/goran-ethernal/SwapIndexor/pkg/config"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvOverrides holds settings that may be supplied through the environment.
// Non-empty values take precedence over the configuration file.
type EnvOverrides struct {
	RPCURL    string `env:"RPC_URL"`
	LogLevel  string `env:"LOG_LEVEL"`
	SentryDSN string `env:"SENTRY_DSN"`
}

// Load reads the configuration file at path, applies environment overrides and
// validates the result. When envPath is set, the file is loaded into the
// process environment first.
func Load(ctx context.Context, path, envPath string) (*pkgconfig.Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	}

	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	var overrides EnvOverrides
	if err := envconfig.Process(ctx, &overrides); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	overrides.Apply(cfg)

	return processConfig(cfg)
}

// Apply copies the non-empty overrides into cfg.
func (o EnvOverrides) Apply(cfg *pkgconfig.Config) {
	if o.RPCURL != "" {
		cfg.Downloader.RPCURL = o.RPCURL
	}
	if o.LogLevel != "" {
		if cfg.Logging == nil {
			cfg.Logging = &pkgconfig.LoggingConfig{}
		}
		cfg.Logging.DefaultLevel = o.LogLevel
	}
	if o.SentryDSN != "" {
		if cfg.ErrorReporting == nil {
			cfg.ErrorReporting = &pkgconfig.ErrorReportingConfig{}
		}
		cfg.ErrorReporting.SentryDSN = o.SentryDSN
	}
}

// LoadFromFile loads configuration from a file, auto-detecting the format by extension.
// Supported formats: .yaml, .yml, .json, .toml
func LoadFromFile(path string) (*pkgconfig.Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	return processConfig(cfg)
}

func decodeFile(path string) (*pkgconfig.Config, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return decodeYAML(path)
	case ".json":
		return decodeJSON(path)
	case ".toml":
		return decodeTOML(path)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}
}

// LoadFromYAML loads configuration from a YAML file.
func LoadFromYAML(path string) (*pkgconfig.Config, error) {
	cfg, err := decodeYAML(path)
	if err != nil {
		return nil, err
	}

	return processConfig(cfg)
}

// LoadFromJSON loads configuration from a JSON file.
func LoadFromJSON(path string) (*pkgconfig.Config, error) {
	cfg, err := decodeJSON(path)
	if err != nil {
		return nil, err
	}

	return processConfig(cfg)
}

// LoadFromTOML loads configuration from a TOML file.
func LoadFromTOML(path string) (*pkgconfig.Config, error) {
	cfg, err := decodeTOML(path)
	if err != nil {
		return nil, err
	}

	return processConfig(cfg)
}

func decodeYAML(path string) (*pkgconfig.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg pkgconfig.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &cfg, nil
}

func decodeJSON(path string) (*pkgconfig.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg pkgconfig.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	return &cfg, nil
}

func decodeTOML(path string) (*pkgconfig.Config, error) {
	var cfg pkgconfig.Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	return &cfg, nil
}

// processConfig applies defaults and validates the configuration.
func processConfig(cfg *pkgconfig.Config) (*pkgconfig.Config, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
