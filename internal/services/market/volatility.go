package market

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/bsprice/internal/domain"
	"github.com/vadiminshakov/bsprice/pkg/indicators"
)

// crypto markets trade around the clock
const tradingYear = 365 * 24 * time.Hour

// RealizedVolatility annualizes the standard deviation of close-to-close log
// returns over all candles. interval is the candle width, e.g. "1h".
func RealizedVolatility(candles []domain.Candle, interval string) (float64, error) {
	width, err := ParseInterval(interval)
	if err != nil {
		return 0, err
	}

	if len(candles) < 3 {
		return 0, fmt.Errorf("not enough candles for volatility: need at least 3, got %d", len(candles))
	}

	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	returns, err := indicators.CalculateLogReturns(closes)
	if err != nil {
		return 0, err
	}

	out, err := indicators.CalculateStd(returns, len(returns))
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("not enough data points for volatility: got %d returns", len(returns))
	}

	sigma := out[len(out)-1]
	if math.IsNaN(sigma) || sigma < 0 {
		return 0, fmt.Errorf("degenerate volatility estimate: %v", sigma)
	}

	periodsPerYear := float64(tradingYear) / float64(width)
	return sigma * math.Sqrt(periodsPerYear), nil
}
