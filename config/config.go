// Package config loads and validates service configuration from YAML
// or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	PriceFeed PriceFeedConfig `json:"pricefeed" yaml:"pricefeed"`
	Backtest  BacktestConfig  `json:"backtest" yaml:"backtest"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	ReadTimeout  string `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
}

// Addr returns the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ParseReadTimeout converts the read timeout string to a duration.
// An empty string means no timeout.
func (s ServerConfig) ParseReadTimeout() (time.Duration, error) {
	if s.ReadTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.ReadTimeout)
}

func (s ServerConfig) ParseWriteTimeout() (time.Duration, error) {
	if s.WriteTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.WriteTimeout)
}

// StoreConfig selects the account store backend.
type StoreConfig struct {
	Type   string `json:"type" yaml:"type"` // "sqlite" or "memory"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// PriceFeedConfig holds the CoinGecko client settings.
type PriceFeedConfig struct {
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	QuoteTTL string `json:"quote_ttl,omitempty" yaml:"quote_ttl,omitempty"`
}

// ParseQuoteTTL converts the quote cache lifetime to a duration.
func (p PriceFeedConfig) ParseQuoteTTL() (time.Duration, error) {
	if p.QuoteTTL == "" {
		return 0, nil
	}
	return time.ParseDuration(p.QuoteTTL)
}

// BacktestConfig holds the simulation engine settings.
type BacktestConfig struct {
	WarmupBars     int `json:"warmup_bars" yaml:"warmup_bars"`
	PeriodsPerYear int `json:"periods_per_year" yaml:"periods_per_year"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // zerolog level name
	Pretty bool   `json:"pretty" yaml:"pretty"` // console writer instead of JSON
}

// LoadFromFile loads configuration from a file, YAML first with a JSON
// fallback, and validates it. Missing fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration to a file, YAML or JSON by
// extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if _, err := c.Server.ParseReadTimeout(); err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	if _, err := c.Server.ParseWriteTimeout(); err != nil {
		return fmt.Errorf("server.write_timeout: %w", err)
	}
	if c.Store.Type != "sqlite" && c.Store.Type != "memory" {
		return fmt.Errorf("store.type must be 'sqlite' or 'memory'")
	}
	if c.Store.Type == "sqlite" && c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path required for sqlite store")
	}
	ttl, err := c.PriceFeed.ParseQuoteTTL()
	if err != nil {
		return fmt.Errorf("pricefeed.quote_ttl: %w", err)
	}
	if ttl < 0 {
		return fmt.Errorf("pricefeed.quote_ttl must not be negative")
	}
	if c.Backtest.WarmupBars < 0 {
		return fmt.Errorf("backtest.warmup_bars must not be negative")
	}
	if c.Backtest.PeriodsPerYear <= 0 {
		return fmt.Errorf("backtest.periods_per_year must be positive")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  "10s",
			WriteTimeout: "30s",
		},
		Store: StoreConfig{
			Type:   "sqlite",
			DBPath: "./papertrader.db",
		},
		PriceFeed: PriceFeedConfig{
			QuoteTTL: "1m",
		},
		Backtest: BacktestConfig{
			WarmupBars:     30,
			PeriodsPerYear: 365,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
