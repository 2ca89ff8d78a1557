// Package config loads gateway configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full gateway configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Auth    AuthConfig    `yaml:"auth"`
	Webhook WebhookConfig `yaml:"webhook"`
	Browser BrowserConfig `yaml:"browser"`
	Events  EventsConfig  `yaml:"events"`

	LogLevel string `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type SessionConfig struct {
	ID      string `yaml:"id"`
	DataDir string `yaml:"data_dir"`
}

type AuthConfig struct {
	// APIKey guards every route when set. Empty disables the check.
	APIKey string `yaml:"api_key"`
}

type WebhookConfig struct {
	// URL is the initial relay destination; POST /webhook can replace it.
	URL string `yaml:"url"`
	// Secret enables HMAC signing of relay payloads.
	Secret string `yaml:"secret"`
}

type BrowserConfig struct {
	Headless  bool   `yaml:"headless"`
	RemoteURL string `yaml:"remote_url"`
}

type EventsConfig struct {
	// Path of the observability SQLite database.
	Path string `yaml:"path"`
	// RetentionDays prunes old events on startup. Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// Load reads the YAML file at path (skipped when path is empty or missing)
// and applies environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3050,
		},
		Session: SessionConfig{
			ID:      "wa-otp-session",
			DataDir: "data",
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Events: EventsConfig{
			Path:          "db/events.db",
			RetentionDays: 30,
		},
		LogLevel: "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SESSION_ID"); v != "" {
		cfg.Session.ID = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Session.DataDir = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Webhook.URL = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("BROWSER_REMOTE_URL"); v != "" {
		cfg.Browser.RemoteURL = v
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		cfg.Browser.Headless = v != "false" && v != "0"
	}
	if v := os.Getenv("EVENTS_DB"); v != "" {
		cfg.Events.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
