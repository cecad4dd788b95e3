package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied when the config file omits them.
const (
	DefaultListen = ":8317"
	DefaultDSN    = "creditledger.db"
)

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Ledger   LedgerConfig   `yaml:"ledger"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DatabaseConfig holds store connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig holds logging settings, including optional file rotation.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// LedgerConfig tunes engine retries and the reset sweep.
type LedgerConfig struct {
	RetryAttempts        int `yaml:"retry-attempts"`
	RetryBackoffMS       int `yaml:"retry-backoff-ms"`
	OpTimeoutMS          int `yaml:"op-timeout-ms"`
	SweepIntervalMinutes int `yaml:"sweep-interval-minutes"`
}

// Load reads the config file and applies defaults and environment overrides.
// A missing file yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server:   ServerConfig{Listen: DefaultListen},
		Database: DatabaseConfig{DSN: DefaultDSN},
		Log:      LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
	}

	trimmed := strings.TrimSpace(path)
	if trimmed != "" {
		data, errRead := os.ReadFile(trimmed)
		if errRead != nil {
			if !os.IsNotExist(errRead) {
				return nil, fmt.Errorf("config: read %s: %w", trimmed, errRead)
			}
		} else if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", trimmed, errUnmarshal)
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CREDITLEDGER_DSN")); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if listen := strings.TrimSpace(os.Getenv("CREDITLEDGER_LISTEN")); listen != "" {
		cfg.Server.Listen = listen
	}

	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = DefaultListen
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = DefaultDSN
	}
	return cfg, nil
}
