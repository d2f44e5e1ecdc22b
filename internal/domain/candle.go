package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle OHLCV bar returned by a market source, oldest first.
type Candle struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}
