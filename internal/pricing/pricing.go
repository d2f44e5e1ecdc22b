// Package pricing computes Black-Scholes prices of European options.
//
// The functions here are pure: they hold no state and are safe for
// concurrent use.
package pricing

import (
	"math"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

// Price returns the Black-Scholes call and put prices.
//
// Parameters:
//   - spot: current price of the underlying, > 0
//   - strike: exercise price, > 0
//   - rate: annualized risk-free rate, any finite value
//   - timeToMaturity: years to expiry, >= 0
//   - volatility: annualized volatility, >= 0 and > 0 when timeToMaturity > 0
//
// At expiry (timeToMaturity == 0) the intrinsic values are returned and
// rate and volatility are ignored. Inputs outside the domain above yield an
// error matching domain.ErrInvalidInput; NaN or Inf is never returned.
func Price(spot, strike, rate, timeToMaturity, volatility float64) (call, put float64, err error) {
	if err := Validate(spot, strike, rate, timeToMaturity, volatility); err != nil {
		return 0, 0, err
	}

	if timeToMaturity == 0 {
		return math.Max(spot-strike, 0), math.Max(strike-spot, 0), nil
	}

	volSqrtT := volatility * math.Sqrt(timeToMaturity)
	d1 := (math.Log(spot/strike) + (rate+0.5*volatility*volatility)*timeToMaturity) / volSqrtT
	if math.IsNaN(d1) {
		return 0, 0, domain.NewInputError("volatility", volatility, "is too small to price")
	}
	d2 := d1 - volSqrtT
	discountedStrike := strike * math.Exp(-rate*timeToMaturity)

	call = spot*NormCDF(d1) - discountedStrike*NormCDF(d2)
	put = discountedStrike*NormCDF(-d2) - spot*NormCDF(-d1)

	// extreme rates can overflow exp even for valid inputs
	if !isFinite(call) || !isFinite(put) {
		return 0, 0, domain.NewInputError("rate", rate, "produces a non-finite price")
	}

	// cancellation can leave tiny negative values for deep in/out of the money options
	return math.Max(call, 0), math.Max(put, 0), nil
}

// PriceInputs prices a domain.OptionInputs value.
func PriceInputs(in domain.OptionInputs) (domain.Prices, error) {
	call, put, err := Price(in.Spot, in.Strike, in.Rate, in.TimeToMaturity, in.Volatility)
	if err != nil {
		return domain.Prices{}, err
	}
	return domain.Prices{Call: call, Put: put}, nil
}

// NormCDF is the standard normal cumulative distribution function.
// erfc keeps precision in the left tail where 1+erf would cancel.
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// Validate checks the inputs accepted by Price.
func Validate(spot, strike, rate, timeToMaturity, volatility float64) error {
	switch {
	case !isFinite(spot):
		return domain.NewInputError("spot", spot, "must be a finite number")
	case spot <= 0:
		return domain.NewInputError("spot", spot, "must be greater than zero")
	case !isFinite(strike):
		return domain.NewInputError("strike", strike, "must be a finite number")
	case strike <= 0:
		return domain.NewInputError("strike", strike, "must be greater than zero")
	case !isFinite(rate):
		return domain.NewInputError("rate", rate, "must be a finite number")
	case !isFinite(timeToMaturity):
		return domain.NewInputError("time_to_maturity", timeToMaturity, "must be a finite number")
	case timeToMaturity < 0:
		return domain.NewInputError("time_to_maturity", timeToMaturity, "must not be negative")
	case !isFinite(volatility):
		return domain.NewInputError("volatility", volatility, "must be a finite number")
	case volatility < 0:
		return domain.NewInputError("volatility", volatility, "must not be negative")
	case volatility == 0 && timeToMaturity > 0:
		return domain.NewInputError("volatility", volatility, "must be greater than zero before expiry")
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
