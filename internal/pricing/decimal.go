package pricing

import "github.com/shopspring/decimal"

// divisionScale is the number of fractional digits kept by divisions
// whose divisor is not a literal constant.
const divisionScale int32 = 18

var (
	two  = decimal.NewFromInt(2)
	half = decimal.New(5, -1)
)

// Div divides a by b, returning zero when b is zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, divisionScale)
}
