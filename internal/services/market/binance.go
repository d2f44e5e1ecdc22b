package market

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

// NewBinanceClient creates a Binance REST client. Empty keys are fine for market data.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	return binance.NewClient(apiKey, apiSecret)
}

// BinanceSource reads prices and klines from the Binance spot API.
type BinanceSource struct {
	client *binance.Client
}

// NewBinanceSource creates a new Binance market source.
func NewBinanceSource(client *binance.Client) *BinanceSource {
	return &BinanceSource{client: client}
}

// Spot fetches the current market price.
func (s *BinanceSource) Spot(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	prices, err := s.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "failed to fetch price from Binance for %s", pair.String())
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, fmt.Errorf("binance API returned empty prices for %s", pair.String())
	}

	return decimal.NewFromString(prices[0].Price)
}

// Candles fetches kline data from Binance.
func (s *BinanceSource) Candles(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	klines, err := s.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make([]domain.Candle, len(klines))
	for i, k := range klines {
		candle, err := parseCandle(k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "binance kline at index %d", i)
		}
		candle.OpenTime = time.UnixMilli(k.OpenTime)
		candle.CloseTime = time.UnixMilli(k.CloseTime)
		result[i] = candle
	}

	return result, nil
}

func parseCandle(open, high, low, close, volume string) (domain.Candle, error) {
	var (
		c   domain.Candle
		err error
	)
	if c.Open, err = decimal.NewFromString(open); err != nil {
		return c, errors.Wrap(err, "failed to parse open price")
	}
	if c.High, err = decimal.NewFromString(high); err != nil {
		return c, errors.Wrap(err, "failed to parse high price")
	}
	if c.Low, err = decimal.NewFromString(low); err != nil {
		return c, errors.Wrap(err, "failed to parse low price")
	}
	if c.Close, err = decimal.NewFromString(close); err != nil {
		return c, errors.Wrap(err, "failed to parse close price")
	}
	if c.Volume, err = decimal.NewFromString(volume); err != nil {
		return c, errors.Wrap(err, "failed to parse volume")
	}
	return c, nil
}
