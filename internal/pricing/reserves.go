package pricing

import (
	"github.com/shopspring/decimal"

	"exchangePricing/internal/model"
)

// ReserveInReference values both sides of a pair in reference-currency
// units using the tokens' derived prices. The reference token itself is
// always valued at exactly one.
func ReserveInReference(pair model.Pair, token0, token1 model.Token, referenceID string) decimal.Decimal {
	r0 := pair.Reserve0.Mul(referenceUnitPrice(token0, referenceID))
	r1 := pair.Reserve1.Mul(referenceUnitPrice(token1, referenceID))
	return r0.Add(r1)
}

// ReferenceSideReserve is the reference token's own term of
// ReserveInReference: the reserve held on the pair's reference side.
// ok is false when the pair does not contain the reference token.
func ReferenceSideReserve(pair model.Pair, referenceID string) (decimal.Decimal, bool) {
	switch referenceID {
	case pair.Token0:
		return pair.Reserve0, true
	case pair.Token1:
		return pair.Reserve1, true
	default:
		return decimal.Zero, false
	}
}

// SpotPrices returns Token0Price and Token1Price for the given reserves.
func SpotPrices(reserve0, reserve1 decimal.Decimal) (token0Price, token1Price decimal.Decimal) {
	return Div(reserve0, reserve1), Div(reserve1, reserve0)
}

func referenceUnitPrice(token model.Token, referenceID string) decimal.Decimal {
	if token.ID == referenceID {
		return decimal.NewFromInt(1)
	}
	return token.DerivedPrice()
}
