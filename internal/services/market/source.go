// Package market fetches spot prices and candles from crypto exchanges and
// derives option inputs from them.
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

// Source provides market data for a trading pair.
type Source interface {
	// Spot returns the last traded price.
	Spot(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
	// Candles returns up to limit bars of the given interval, oldest first.
	Candles(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error)
}

// Credentials for exchanges. Binance and Bybit market endpoints are public,
// so their keys may be empty. Hyperliquid needs a wallet key to build its client.
type Credentials struct {
	BinanceAPIKey         string
	BinanceAPISecret      string
	BybitAPIKey           string
	BybitAPISecret        string
	HyperliquidPrivateKey string
	HyperliquidAPIURL     string
}

const defaultHyperliquidAPIURL = "https://api.hyperliquid.xyz"

// Platforms lists the supported platform names.
var Platforms = []string{"binance", "bybit", "hyperliquid"}

// maxCandles is the most bars one kline request returns per platform.
var maxCandles = map[string]int{
	"binance":     1000,
	"bybit":       200,
	"hyperliquid": 5000,
}

// MaxCandles returns how many candles a single request to platform can
// return, or 0 for an unknown platform.
func MaxCandles(platform string) int {
	return maxCandles[strings.ToLower(platform)]
}

// NewSource creates the market source for the named platform.
func NewSource(platform string, creds Credentials) (Source, error) {
	switch strings.ToLower(platform) {
	case "binance":
		return NewBinanceSource(NewBinanceClient(creds.BinanceAPIKey, creds.BinanceAPISecret)), nil
	case "bybit":
		return NewBybitSource(NewBybitClient(creds.BybitAPIKey, creds.BybitAPISecret)), nil
	case "hyperliquid":
		if creds.HyperliquidPrivateKey == "" {
			return nil, fmt.Errorf("HYPERLIQUID_PRIVATE_KEY must be set for the hyperliquid platform")
		}
		baseURL := creds.HyperliquidAPIURL
		if baseURL == "" {
			baseURL = defaultHyperliquidAPIURL
		}
		client, err := NewHyperliquidClient(creds.HyperliquidPrivateKey, baseURL)
		if err != nil {
			return nil, fmt.Errorf("create hyperliquid client: %w", err)
		}
		return NewHyperliquidSource(client), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

// ParseInterval converts candle intervals like "1m", "4h", "1d", "1w" to a duration.
func ParseInterval(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid interval: %q", interval)
	}
	unit := interval[len(interval)-1]
	value := interval[:len(interval)-1]

	var n int64
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid interval number: %s", interval)
		}
		n = n*10 + int64(r-'0')
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid interval: %s", interval)
	}

	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported interval unit: %c", unit)
	}
}
