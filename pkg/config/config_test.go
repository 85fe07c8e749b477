package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int           `env:"PORT" envDefault:"8080"`
	Secret  string        `env:"SECRET" envDefault:"dev"`
	Expiry  time.Duration `env:"EXPIRY" envDefault:"168h"`
	Brokers []string      `env:"BROKERS" envDefault:"a:1,b:2" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg, WithEnvironment(map[string]string{})))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "dev", cfg.Secret)
	assert.Equal(t, 7*24*time.Hour, cfg.Expiry)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Brokers)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EXPIRY", "15m")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.Expiry)
}

func TestLoad_Prefix(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg,
		WithPrefix("CATALOG_"),
		WithEnvironment(map[string]string{"CATALOG_SECRET": "s3cr3t", "SECRET": "ignored"}),
	)

	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.Secret)
}

func TestLoad_InvalidValue(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg, WithEnvironment(map[string]string{"PORT": "not-a-number"}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
