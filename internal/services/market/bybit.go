package market

import (
	"context"
	"fmt"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

const bybitCategory = "spot"

// bybit V5 interval codes
var bybitIntervals = map[string]string{
	"1m":  "1",
	"3m":  "3",
	"5m":  "5",
	"15m": "15",
	"30m": "30",
	"1h":  "60",
	"2h":  "120",
	"4h":  "240",
	"6h":  "360",
	"12h": "720",
	"1d":  "D",
	"1w":  "W",
}

// NewBybitClient creates a Bybit client, authenticated only when keys are given.
func NewBybitClient(apiKey, apiSecret string) *bybit.Client {
	client := bybit.NewClient()
	if apiKey != "" && apiSecret != "" {
		client = client.WithAuth(apiKey, apiSecret)
	}
	return client
}

// BybitSource reads prices and klines from the Bybit V5 spot market.
type BybitSource struct {
	client *bybit.Client
}

// NewBybitSource creates a new Bybit market source.
func NewBybitSource(client *bybit.Client) *BybitSource {
	return &BybitSource{client: client}
}

// Spot fetches the last traded price.
func (s *BybitSource) Spot(_ context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(pair.Symbol())

	result, err := s.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: bybitCategory,
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "failed to fetch ticker from Bybit for %s", pair.String())
	}

	if len(result.Result.Spot.List) == 0 {
		return decimal.Decimal{}, fmt.Errorf("bybit API returned empty prices for %s", pair.String())
	}

	return decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
}

// Candles fetches the latest klines. Bybit returns a page of at most 200 bars
// newest first; they are reversed here.
func (s *BybitSource) Candles(_ context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	code, ok := bybitIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported bybit interval: %s", interval)
	}

	klines, err := s.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: bybitCategory,
		Symbol:   bybit.SymbolV5(pair.Symbol()),
		Interval: bybit.Interval(code),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get klines from Bybit for %s", pair.String())
	}

	list := klines.Result.List
	if len(list) == 0 {
		return nil, fmt.Errorf("no klines data received from Bybit for %s", pair.String())
	}

	result := make([]domain.Candle, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		k := list[i]
		candle, err := parseCandle(k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit kline at index %d", i)
		}
		result = append(result, candle)
	}

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}
