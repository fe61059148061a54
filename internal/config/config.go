// Package config loads portal.yml with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "portal.yml"

// Config is the top-level portal configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// WebhookConfig carries the payment webhook verification settings. Secret has
// no default: serving without one is a configuration error.
type WebhookConfig struct {
	Secret           string `yaml:"secret"`
	ToleranceSeconds int    `yaml:"tolerance_seconds"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func defaults() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "portal.db"},
		Webhook:  WebhookConfig{ToleranceSeconds: 300},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML config at path (default portal.yml; a missing default
// file just yields the defaults), then applies PORTAL_* environment
// overrides. Env always wins over file.
func Load(path string) (Config, error) {
	cfg := defaults()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// no config file, defaults apply
	default:
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(&cfg)

	if cfg.Webhook.ToleranceSeconds <= 0 {
		return Config{}, fmt.Errorf("webhook tolerance_seconds must be positive")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORTAL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PORTAL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PORTAL_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("PORTAL_WEBHOOK_TOLERANCE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Webhook.ToleranceSeconds = n
		}
	}
	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// ValidateForServe enforces the requirements of the serve command. The
// webhook secret is mandatory: there is no unverified fallback mode.
func (c Config) ValidateForServe() error {
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret (or PORTAL_WEBHOOK_SECRET) is required to serve: refusing to accept unverifiable payment events")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// SignatureTolerance returns the webhook replay window as a duration.
func (c Config) SignatureTolerance() time.Duration {
	return time.Duration(c.Webhook.ToleranceSeconds) * time.Second
}
