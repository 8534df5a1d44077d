package pricing

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"exchangePricing/internal/model"
)

// TokenResolver derives a token's price in reference-currency units from
// the first sufficiently liquid pair against a whitelisted token.
type TokenResolver struct {
	referenceID      string
	whitelist        []string
	minimumLiquidity decimal.Decimal
	snapshot         Snapshot
	logger           *zap.Logger
}

func newTokenResolver(cfg Config, snapshot Snapshot, logger *zap.Logger) *TokenResolver {
	return &TokenResolver{
		referenceID:      cfg.ReferenceToken,
		whitelist:        cfg.Whitelist,
		minimumLiquidity: cfg.MinimumLiquidity,
		snapshot:         snapshot,
		logger:           logger,
	}
}

// PriceInReference returns the token's price in reference units, or zero
// when no whitelisted pair qualifies. The result is not written back.
func (r *TokenResolver) PriceInReference(token model.Token) decimal.Decimal {
	if token.ID == r.referenceID {
		return decimal.NewFromInt(1)
	}

	for _, anchor := range r.whitelist {
		pairID, ok := r.snapshot.FindPair(token.ID, anchor)
		if !ok {
			continue
		}
		pair, ok := r.snapshot.LoadPair(pairID)
		if !ok {
			r.logger.Debug("pair not indexed", zap.String("pair", pairID), zap.String("token", token.ID))
			continue
		}
		if !pair.ReserveReference.GreaterThan(r.minimumLiquidity) {
			continue
		}
		if pair.Token0 == token.ID {
			return pair.Token1Price.Mul(r.derivedPrice(pair.Token1))
		}
		if pair.Token1 == token.ID {
			return pair.Token0Price.Mul(r.derivedPrice(pair.Token0))
		}
	}
	return decimal.Zero
}

func (r *TokenResolver) derivedPrice(id string) decimal.Decimal {
	token, ok := r.snapshot.LoadToken(id)
	if !ok {
		return decimal.Zero
	}
	return token.DerivedPrice()
}
