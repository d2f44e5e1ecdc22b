// Package quoter prices option inputs and records the resulting quotes.
package quoter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/bsprice/internal/domain"
	"github.com/vadiminshakov/bsprice/internal/pricing"
)

type quoteStore interface {
	Save(quote domain.Quote) error
	QuotesAfter(index uint64, limit int) ([]domain.QuoteRecord, error)
}

// Quoter prices inputs and appends each successful quote to the store.
type Quoter struct {
	store  quoteStore
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Quoter. A nil store disables history.
func New(store quoteStore, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{store: store, logger: logger, now: time.Now}
}

// Quote prices the inputs. Invalid inputs are returned unwrapped so callers
// can match domain.ErrInvalidInput and nothing is stored for them.
func (q *Quoter) Quote(ctx context.Context, in domain.OptionInputs, source string) (domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Quote{}, err
	}

	prices, err := pricing.PriceInputs(in)
	if err != nil {
		q.logger.Warn("rejected option inputs",
			zap.String("source", source),
			zap.Error(err),
		)
		return domain.Quote{}, err
	}

	quote := domain.Quote{
		ID:        uuid.New().String(),
		Inputs:    in,
		Prices:    prices,
		Source:    source,
		CreatedAt: q.now().UTC(),
	}

	q.logger.Info("priced option",
		zap.String("id", quote.ID),
		zap.String("source", source),
		zap.Float64("spot", in.Spot),
		zap.Float64("strike", in.Strike),
		zap.Float64("rate", in.Rate),
		zap.Float64("time_to_maturity", in.TimeToMaturity),
		zap.Float64("volatility", in.Volatility),
		zap.Float64("call", prices.Call),
		zap.Float64("put", prices.Put),
	)

	if q.store == nil {
		return quote, nil
	}
	if err := q.store.Save(quote); err != nil {
		q.logger.Error("failed to save quote", zap.String("id", quote.ID), zap.Error(err))
		return quote, errors.Wrap(err, "save quote")
	}

	return quote, nil
}

// History returns up to limit stored quotes after the given index.
func (q *Quoter) History(after uint64, limit int) ([]domain.QuoteRecord, error) {
	if q.store == nil {
		return nil, nil
	}
	records, err := q.store.QuotesAfter(after, limit)
	if err != nil {
		return nil, errors.Wrap(err, "read quote history")
	}
	return records, nil
}
