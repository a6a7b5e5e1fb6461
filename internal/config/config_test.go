package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.DatabaseURI)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Second, cfg.SettlementPollInterval)
	assert.Equal(t, 4, cfg.SettlementWorkers)
	assert.InDelta(t, 1.85, cfg.PayoutRatio, 1e-9)
	assert.InDelta(t, 0.002, cfg.PriceVolatility, 1e-9)
	assert.Empty(t, cfg.AllowedOrigins())
}

func TestParse_Flags(t *testing.T) {
	cfg, err := Parse([]string{"-a", "127.0.0.1:9000", "-w", "8", "-payout", "1.9", "-cors", "http://a.test, http://b.test"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddr)
	assert.Equal(t, 8, cfg.SettlementWorkers)
	assert.InDelta(t, 1.9, cfg.PayoutRatio, 1e-9)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestParse_EnvOverridesFlags(t *testing.T) {
	t.Setenv("RUN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("DATABASE_URI", "postgres://localhost/tradesim")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Parse([]string{"-a", "127.0.0.1:9000"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7000", cfg.ServerAddr)
	assert.Equal(t, "postgres://localhost/tradesim", cfg.DatabaseURI)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.CookieSecure)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "ZeroWorkers", args: []string{"-w", "0"}},
		{name: "NegativePayout", args: []string{"-payout", "-1"}},
		{name: "Volatility", args: []string{"-volatility", "1.5"}},
		{name: "ZeroVolatility", args: []string{"-volatility", "0"}},
		{name: "NegativeVolatility", args: []string{"-volatility", "-0.1"}},
		{name: "AdminWithoutPassword", args: []string{"-admin-email", "admin@example.com"}},
		{name: "UnknownFlag", args: []string{"-unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			assert.Error(t, err)
		})
	}
}
