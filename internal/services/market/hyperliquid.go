package market

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

// HyperliquidClient wraps the SDK exchange handle; market data is read through its Info API.
type HyperliquidClient struct {
	exchange    *hyperliquid.Exchange
	accountAddr string
}

// NewHyperliquidClient builds a client from a hex private key (with or without 0x).
func NewHyperliquidClient(privateKeyHex string, baseURL string) (*HyperliquidClient, error) {
	key := strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X")

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, errors.Wrap(err, "parse hyperliquid private key")
	}

	pub, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}
	accountAddr := crypto.PubkeyToAddress(*pub).Hex()

	ex := hyperliquid.NewExchange(
		context.Background(),
		privateKey,
		baseURL,
		nil,
		"",
		accountAddr,
		nil,
	)

	return &HyperliquidClient{exchange: ex, accountAddr: accountAddr}, nil
}

// AccountAddress returns the wallet address derived from the key.
func (c *HyperliquidClient) AccountAddress() string { return c.accountAddr }

// HyperliquidSource reads mids and candles from the Hyperliquid Info API.
type HyperliquidSource struct {
	info *hyperliquid.Info
}

// NewHyperliquidSource creates a new Hyperliquid market source.
func NewHyperliquidSource(client *HyperliquidClient) *HyperliquidSource {
	return &HyperliquidSource{info: client.exchange.Info()}
}

// Spot returns the mid price. Hyperliquid mids are keyed by base coin (e.g. "BTC").
func (s *HyperliquidSource) Spot(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	if s.info == nil {
		return decimal.Zero, fmt.Errorf("hyperliquid info client is nil")
	}

	mids, err := s.info.AllMids(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to fetch mids from Hyperliquid")
	}

	mid, ok := mids[strings.ToUpper(pair.From)]
	if !ok || mid == "" {
		return decimal.Zero, fmt.Errorf("hyperliquid API returned empty mid price for %s", pair.From)
	}
	return decimal.NewFromString(mid)
}

// Candles fetches the last limit candles of the base coin.
func (s *HyperliquidSource) Candles(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	if s.info == nil {
		return nil, fmt.Errorf("hyperliquid info client is nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	dur, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}

	endMs := time.Now().UnixMilli()
	// two extra bars absorb rounding at the window edges
	startMs := endMs - (int64(limit)+2)*dur.Milliseconds()
	coin := strings.ToUpper(pair.From)

	candles, err := s.info.CandlesSnapshot(ctx, coin, interval, startMs, endMs)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch candles from Hyperliquid for %s", coin)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles from hyperliquid for %s %s", coin, interval)
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	out := make([]domain.Candle, 0, len(candles))
	for i, c := range candles {
		candle, err := parseCandle(c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperliquid candle at index %d", i)
		}
		candle.OpenTime = time.UnixMilli(c.TimeOpen)
		candle.CloseTime = time.UnixMilli(c.TimeClose)
		out = append(out, candle)
	}

	return out, nil
}
