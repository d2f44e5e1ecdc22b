package market

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/bsprice/internal/domain"
	"github.com/vadiminshakov/bsprice/pkg/retrier"
)

// Assisted holds option inputs derived from live market data.
type Assisted struct {
	Pair       domain.Pair
	Spot       float64
	Volatility float64
	Candles    int
}

// Assistant derives spot and realized volatility for a pair.
type Assistant struct {
	source   Source
	retrier  *retrier.Retrier
	interval string
	lookback int
	logger   *zap.Logger
}

// NewAssistant creates an Assistant. lookback is the number of candles used for volatility.
func NewAssistant(source Source, r *retrier.Retrier, interval string, lookback int, logger *zap.Logger) *Assistant {
	if r == nil {
		r = retrier.New(retrier.WithMaxRetries(0))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{source: source, retrier: r, interval: interval, lookback: lookback, logger: logger}
}

// Assist fetches the spot price and estimates volatility from recent candles.
func (a *Assistant) Assist(ctx context.Context, pair domain.Pair) (Assisted, error) {
	spot, err := retrier.DoWithData(a.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		return a.source.Spot(ctx, pair)
	})
	if err != nil {
		return Assisted{}, errors.Wrapf(err, "get spot price for %s", pair.String())
	}
	if !spot.IsPositive() {
		return Assisted{}, errors.Errorf("spot price for %s is not positive: %s", pair.String(), spot)
	}

	candles, err := retrier.DoWithData(a.retrier, ctx, func(ctx context.Context) ([]domain.Candle, error) {
		return a.source.Candles(ctx, pair, a.interval, a.lookback)
	})
	if err != nil {
		return Assisted{}, errors.Wrapf(err, "get candles for %s", pair.String())
	}

	vol, err := RealizedVolatility(candles, a.interval)
	if err != nil {
		return Assisted{}, errors.Wrapf(err, "estimate volatility for %s", pair.String())
	}

	a.logger.Info("market inputs",
		zap.String("pair", pair.String()),
		zap.String("spot", spot.String()),
		zap.Float64("volatility", vol),
		zap.Int("candles", len(candles)),
	)

	return Assisted{
		Pair:       pair,
		Spot:       spot.InexactFloat64(),
		Volatility: vol,
		Candles:    len(candles),
	}, nil
}
