// Package config provides unified configuration loading for the scanner:
// defaults, optional YAML file, then environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("webqa.yaml").
//	    WithEnvPrefix("WEBQA").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with defaults, YAML file, and env overrides.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a configuration loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "WEBQA"}
}

// WithConfigPath sets the YAML file to load.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the effective configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", l.configPath, err)
		}
	}

	l.applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides config fields from environment variables.
func (l *Loader) applyEnv(cfg *Config) {
	l.envString("ORACLE_API_KEY", &cfg.Oracle.APIKey)
	l.envString("ORACLE_BASE_URL", &cfg.Oracle.BaseURL)
	l.envString("ORACLE_MODEL", &cfg.Oracle.Model)
	l.envDuration("ORACLE_MIN_INTERVAL", &cfg.Oracle.MinInterval)
	l.envInt("ORACLE_MAX_TURNS", &cfg.Oracle.MaxTurns)

	l.envBool("BROWSER_HEADLESS", &cfg.Browser.Headless)
	l.envString("BROWSER_USER_AGENT", &cfg.Browser.UserAgent)
	l.envDuration("BROWSER_NAV_TIMEOUT", &cfg.Browser.NavigationTimeout)

	l.envString("SERVER_ADDR", &cfg.Server.Addr)
	l.envString("SERVER_API_KEY", &cfg.Server.APIKey)
	l.envString("SERVER_JWT_SECRET", &cfg.Server.JWTSecret)
	l.envString("SERVER_SCAN_BINARY", &cfg.Server.ScanBinary)

	l.envString("STORE_PATH", &cfg.Store.Path)
	l.envString("OUTPUT_ROOT", &cfg.Output.Root)
	l.envBool("OUTPUT_ZIP", &cfg.Output.Zip)
}

func (l *Loader) lookup(key string) (string, bool) {
	return os.LookupEnv(l.envPrefix + "_" + key)
}

func (l *Loader) envString(key string, dst *string) {
	if v, ok := l.lookup(key); ok {
		*dst = v
	}
}

func (l *Loader) envInt(key string, dst *int) {
	if v, ok := l.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (l *Loader) envBool(key string, dst *bool) {
	if v, ok := l.lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (l *Loader) envDuration(key string, dst *time.Duration) {
	if v, ok := l.lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
