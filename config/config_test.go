package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

func noEnv(string) string { return "" }

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil, noEnv)
	require.NoError(t, err)

	assert.False(t, cfg.Serve)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./wal/quotes", cfg.WALDir)
	assert.Equal(t, -1, cfg.Precision)
	assert.Equal(t, "1h", cfg.Interval)
	assert.Equal(t, 720, cfg.Lookback)
	assert.Equal(t, 3, cfg.Retries)
	assert.Empty(t, cfg.Defaults)
	assert.Nil(t, cfg.Pair)
	assert.False(t, cfg.MarketAssisted())
}

func TestParse_Flags(t *testing.T) {
	env := map[string]string{"BYBIT_API_KEY": "key", "BYBIT_API_SECRET": "secret"}
	cfg, err := Parse([]string{
		"-serve", "-addr", ":9090", "-precision", "4", "-rate", "0.03",
		"-platform", "bybit", "-pair", "eth_usdt", "-interval", "4h", "-lookback", "180",
		"-tls-domains", "a.example.com, b.example.com",
	}, func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.True(t, cfg.Serve)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 4, cfg.Precision)
	assert.Equal(t, map[string]float64{"rate": 0.03}, cfg.Defaults)
	assert.Equal(t, &domain.Pair{From: "ETH", To: "USDT"}, cfg.Pair)
	assert.True(t, cfg.MarketAssisted())
	assert.Equal(t, "4h", cfg.Interval)
	assert.Equal(t, 180, cfg.Lookback)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.TLSDomains)
	assert.Equal(t, "key", cfg.Credentials.BybitAPIKey)
	assert.Equal(t, "secret", cfg.Credentials.BybitAPISecret)
}

func TestParse_Yaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
addr: ":7000"
wal_dir: /tmp/quotes
precision: 2
platform: binance
pair: BTC_USDT
lookback: 96
defaults:
  rate: 0.02
  time_to_maturity: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Parse([]string{"-config", path, "-precision", "6"}, noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "/tmp/quotes", cfg.WALDir)
	assert.Equal(t, 6, cfg.Precision, "explicit flag wins over yaml")
	assert.Equal(t, "binance", cfg.Platform)
	assert.Equal(t, &domain.Pair{From: "BTC", To: "USDT"}, cfg.Pair)
	assert.Equal(t, 96, cfg.Lookback)
	assert.Equal(t, map[string]float64{"rate": 0.02, "time_to_maturity": 0.25}, cfg.Defaults)
}

func TestParse_Errors(t *testing.T) {
	badYaml := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badYaml, []byte("defaults:\n  gamma: 1\n"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "bad pair", args: []string{"-platform", "binance", "-pair", "BTCUSDT"}},
		{name: "platform without pair", args: []string{"-platform", "binance"}},
		{name: "pair without platform", args: []string{"-pair", "BTC_USDT"}},
		{name: "short lookback", args: []string{"-lookback", "2"}},
		{name: "bad interval", args: []string{"-interval", "1y"}},
		{name: "negative retries", args: []string{"-retries", "-1"}},
		{name: "missing config file", args: []string{"-config", "/does/not/exist.yaml"}},
		{name: "unknown default", args: []string{"-config", badYaml}},
		{name: "unsupported platform", args: []string{"-platform", "kraken", "-pair", "BTC_USDT"}},
		{name: "lookback above binance page", args: []string{"-platform", "binance", "-pair", "BTC_USDT", "-lookback", "1001"}},
		{name: "lookback above bybit page", args: []string{"-platform", "bybit", "-pair", "BTC_USDT", "-lookback", "201"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, noEnv)
			assert.Error(t, err)
		})
	}
}

func TestParse_LookbackFitsPlatform(t *testing.T) {
	yamlLookback := filepath.Join(t.TempDir(), "lookback.yaml")
	require.NoError(t, os.WriteFile(yamlLookback, []byte("platform: bybit\npair: BTC_USDT\nlookback: 500\n"), 0o644))

	tests := []struct {
		name     string
		args     []string
		lookback int
		wantErr  bool
	}{
		{name: "default kept for binance", args: []string{"-platform", "binance", "-pair", "BTC_USDT"}, lookback: 720},
		{name: "default lowered for bybit", args: []string{"-platform", "bybit", "-pair", "BTC_USDT"}, lookback: 200},
		{name: "explicit at bybit max", args: []string{"-platform", "bybit", "-pair", "BTC_USDT", "-lookback", "200"}, lookback: 200},
		{name: "explicit at binance max", args: []string{"-platform", "binance", "-pair", "BTC_USDT", "-lookback", "1000"}, lookback: 1000},
		{name: "hyperliquid larger window", args: []string{"-platform", "hyperliquid", "-pair", "BTC_USDC", "-lookback", "4000"}, lookback: 4000},
		{name: "yaml value above bybit max", args: []string{"-config", yamlLookback}, wantErr: true},
		{name: "no platform leaves lookback alone", args: []string{"-lookback", "5000"}, lookback: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(tt.args, noEnv)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lookback, cfg.Lookback)
		})
	}
}
