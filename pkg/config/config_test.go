package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int           `env:"TEST_CFG_PORT" envDefault:"8080"`
	APIBase  string        `env:"TEST_CFG_API_BASE" envDefault:"http://localhost:8090"`
	Brokers  []string      `env:"TEST_CFG_BROKERS" envDefault:"a:9092,b:9092" envSeparator:","`
	Timeout  time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"5s"`
	Verbose  bool          `env:"TEST_CFG_VERBOSE" envDefault:"false"`
	Required string        `env:"TEST_CFG_REQUIRED"`
}

type requiredConfig struct {
	APIPath string `env:"TEST_CFG_API_PATH,required"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8090", cfg.APIBase)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Required)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_API_BASE", "https://shop.example.com")
	t.Setenv("TEST_CFG_BROKERS", "kafka:9092")
	t.Setenv("TEST_CFG_TIMEOUT", "250ms")
	t.Setenv("TEST_CFG_VERBOSE", "true")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://shop.example.com", cfg.APIBase)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Verbose)
}

func TestLoad_InvalidInt(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_CFG_API_PATH")
}

type checkedConfig struct {
	Port int `env:"TEST_CFG_CHECKED_PORT" envDefault:"8080"`
}

func (c *checkedConfig) Validate() error {
	if c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func TestLoad_RunsValidate(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		wantErr string
	}{
		{"valid", "9090", ""},
		{"out of range", "70000", "invalid port: 70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CFG_CHECKED_PORT", tt.port)

			var cfg checkedConfig
			err := Load(&cfg)

			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}
