package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9090
store:
  type: memory
backtest:
  warmup_bars: 10
  periods_per_year: 365
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, 10, cfg.Backtest.WarmupBars)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"host":"localhost","port":8000}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8000", cfg.Server.Addr())
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{{not parseable"), 0644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"bad read timeout", func(c *Config) { c.Server.ReadTimeout = "soon" }},
		{"bad store type", func(c *Config) { c.Store.Type = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Store.DBPath = "" }},
		{"bad quote ttl", func(c *Config) { c.PriceFeed.QuoteTTL = "often" }},
		{"negative quote ttl", func(c *Config) { c.PriceFeed.QuoteTTL = "-1m" }},
		{"negative warmup", func(c *Config) { c.Backtest.WarmupBars = -1 }},
		{"zero periods", func(c *Config) { c.Backtest.PeriodsPerYear = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Server.Port = 9999

	path := filepath.Join(t.TempDir(), "out.yml")
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, got.Server.Port)
}
