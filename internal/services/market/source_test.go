package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource(t *testing.T) {
	tests := []struct {
		name        string
		platform    string
		creds       Credentials
		expectType  any
		expectedErr string
	}{
		{name: "Binance public", platform: "binance", expectType: &BinanceSource{}},
		{name: "Bybit public", platform: "Bybit", expectType: &BybitSource{}},
		{name: "Hyperliquid without key", platform: "hyperliquid", expectedErr: "HYPERLIQUID_PRIVATE_KEY must be set for the hyperliquid platform"},
		{name: "Unsupported", platform: "kraken", expectedErr: "unsupported platform: kraken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(tt.platform, tt.creds)
			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
				assert.Nil(t, src)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expectType, src)
		})
	}
}

func TestMaxCandles(t *testing.T) {
	assert.Equal(t, 1000, MaxCandles("binance"))
	assert.Equal(t, 200, MaxCandles("Bybit"))
	assert.Equal(t, 5000, MaxCandles("hyperliquid"))
	assert.Zero(t, MaxCandles("kraken"))
	for _, p := range Platforms {
		assert.Positive(t, MaxCandles(p), p)
	}
}

func TestNewHyperliquidClient_BadKey(t *testing.T) {
	_, err := NewHyperliquidClient("0xnothex", defaultHyperliquidAPIURL)
	assert.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "1m", expected: time.Minute},
		{input: "15m", expected: 15 * time.Minute},
		{input: "4h", expected: 4 * time.Hour},
		{input: "1d", expected: 24 * time.Hour},
		{input: "1w", expected: 7 * 24 * time.Hour},
		{input: "", wantErr: true},
		{input: "h", wantErr: true},
		{input: "0h", wantErr: true},
		{input: "1x", wantErr: true},
		{input: "a1h", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseInterval(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}
