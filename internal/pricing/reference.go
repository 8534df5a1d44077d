package pricing

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"exchangePricing/internal/model"
)

// ReferenceEstimator prices the reference token in USD from the
// configured stablecoin pairs.
type ReferenceEstimator struct {
	referenceID string
	stablePairs []string
	pairs       PairLoader
	logger      *zap.Logger
}

type stableQuote struct {
	reserve decimal.Decimal
	price   decimal.Decimal
}

func newReferenceEstimator(cfg Config, pairs PairLoader, logger *zap.Logger) *ReferenceEstimator {
	return &ReferenceEstimator{
		referenceID: cfg.ReferenceToken,
		stablePairs: cfg.StablePairs,
		pairs:       pairs,
		logger:      logger,
	}
}

// PriceUSD returns the liquidity-weighted reference price in USD. Zero
// means no price is available.
func (e *ReferenceEstimator) PriceUSD() decimal.Decimal {
	quotes := make([]stableQuote, 0, len(e.stablePairs))
	for _, id := range e.stablePairs {
		pair, ok := e.pairs.LoadPair(id)
		if !ok {
			e.logger.Debug("stable pair not loaded", zap.String("pair", id))
			continue
		}
		quote, ok := e.quote(pair)
		if !ok {
			e.logger.Debug("stable pair lacks reference token", zap.String("pair", id))
			continue
		}
		quotes = append(quotes, quote)
	}

	switch len(quotes) {
	case 0:
		return decimal.Zero
	case 1:
		return quotes[0].price
	}

	total := decimal.Zero
	for _, q := range quotes {
		total = total.Add(q.reserve)
	}
	if total.IsZero() {
		return decimal.Zero
	}

	price := decimal.Zero
	for _, q := range quotes {
		weight := Div(q.reserve, total)
		price = price.Add(q.price.Mul(weight))
	}
	return price
}

// quote returns the pair's reference-side reserve and the stablecoin units
// per reference token it implies.
func (e *ReferenceEstimator) quote(pair model.Pair) (stableQuote, bool) {
	reserve, ok := ReferenceSideReserve(pair, e.referenceID)
	if !ok {
		return stableQuote{}, false
	}
	price := pair.Token0Price
	if pair.Token0 == e.referenceID {
		price = pair.Token1Price
	}
	return stableQuote{reserve: reserve, price: price}, true
}
