package pricing

import (
	"github.com/shopspring/decimal"

	"exchangePricing/internal/model"
)

// Tracker turns token amounts into USD figures that only count
// whitelisted tokens.
type Tracker struct {
	whitelisted map[string]struct{}
}

// NewTracker builds a Tracker for the given whitelist.
func NewTracker(whitelist []string) *Tracker {
	set := make(map[string]struct{}, len(whitelist))
	for _, id := range whitelist {
		set[id] = struct{}{}
	}
	return &Tracker{whitelisted: set}
}

// IsWhitelisted reports whether id is on the whitelist.
func (t *Tracker) IsWhitelisted(id string) bool {
	_, ok := t.whitelisted[id]
	return ok
}

// VolumeUSD returns the tracked swap volume in USD. When both tokens are
// whitelisted the two legs are averaged; a lone whitelisted leg counts in
// full; otherwise nothing is tracked.
func (t *Tracker) VolumeUSD(referencePriceUSD, amount0 decimal.Decimal, token0 model.Token, amount1 decimal.Decimal, token1 model.Token) decimal.Decimal {
	in0, in1 := t.IsWhitelisted(token0.ID), t.IsWhitelisted(token1.ID)
	value0 := amount0.Mul(unitPriceUSD(token0, referencePriceUSD))
	value1 := amount1.Mul(unitPriceUSD(token1, referencePriceUSD))

	switch {
	case in0 && in1:
		return value0.Add(value1).Mul(half)
	case in0:
		return value0
	case in1:
		return value1
	default:
		return decimal.Zero
	}
}

// LiquidityUSD returns the tracked liquidity in USD. Both legs are summed;
// a lone whitelisted leg is doubled on the assumption of a balanced pair.
func (t *Tracker) LiquidityUSD(referencePriceUSD, amount0 decimal.Decimal, token0 model.Token, amount1 decimal.Decimal, token1 model.Token) decimal.Decimal {
	in0, in1 := t.IsWhitelisted(token0.ID), t.IsWhitelisted(token1.ID)
	value0 := amount0.Mul(unitPriceUSD(token0, referencePriceUSD))
	value1 := amount1.Mul(unitPriceUSD(token1, referencePriceUSD))

	switch {
	case in0 && in1:
		return value0.Add(value1)
	case in0:
		return value0.Mul(two)
	case in1:
		return value1.Mul(two)
	default:
		return decimal.Zero
	}
}

func unitPriceUSD(token model.Token, referencePriceUSD decimal.Decimal) decimal.Decimal {
	return token.DerivedPrice().Mul(referencePriceUSD)
}
