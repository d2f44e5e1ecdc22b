// Package domain defines the data structures shared by the pricer and its front-ends.
package domain

// OptionInputs are the five market inputs of a European option.
type OptionInputs struct {
	// Spot current price of the underlying.
	Spot float64 `json:"spot"`
	// Strike exercise price.
	Strike float64 `json:"strike"`
	// Rate annualized continuously compounded risk-free rate.
	Rate float64 `json:"rate"`
	// TimeToMaturity remaining life in years.
	TimeToMaturity float64 `json:"time_to_maturity"`
	// Volatility annualized standard deviation of log returns.
	Volatility float64 `json:"volatility"`
}

// Prices call and put values for one set of inputs.
type Prices struct {
	Call float64 `json:"call"`
	Put  float64 `json:"put"`
}
