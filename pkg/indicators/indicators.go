// Package indicators provides return and dispersion series over price data.
package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/shopspring/decimal"
)

// CalculateLogReturns returns ln(close[i]/close[i-1]) for consecutive closes.
func CalculateLogReturns(closes []decimal.Decimal) ([]float64, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("not enough data points for returns: need at least 2, got %d", len(closes))
	}

	closesFloat := decimalsToFloat64(closes)
	returns := make([]float64, 0, len(closesFloat)-1)
	for i, c := range closesFloat {
		if c <= 0 {
			return nil, fmt.Errorf("non-positive close price %s at index %d", closes[i], i)
		}
		if i > 0 {
			returns = append(returns, math.Log(c/closesFloat[i-1]))
		}
	}

	return returns, nil
}

// CalculateStd calculates the moving (population) standard deviation for the given period.
func CalculateStd(values []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("invalid period %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(values))
	}

	std := volatility.NewMovingStdWithPeriod[float64](period)
	inputChan := helper.SliceToChan(values)
	outputChan := std.Compute(inputChan)

	return helper.ChanToSlice(outputChan), nil
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}
