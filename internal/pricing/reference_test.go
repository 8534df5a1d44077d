package pricing

import (
	"testing"

	"exchangePricing/internal/model"
)

// busdWBNB has WBNB as token0: 100 WBNB against 30000 BUSD, 300 BUSD per WBNB.
func busdWBNB(reserveBNB, reserveBUSD string) model.Pair {
	return model.Pair{ID: busdPair, Token0: wbnb, Token1: busd, Reserve0: d(reserveBNB), Reserve1: d(reserveBUSD)}
}

// usdtWBNB has USDT as token0.
func usdtWBNB(reserveUSDT, reserveBNB string) model.Pair {
	return model.Pair{ID: usdtPair, Token0: usdt, Token1: wbnb, Reserve0: d(reserveUSDT), Reserve1: d(reserveBNB)}
}

func TestReferencePriceNoStablePairs(t *testing.T) {
	p := newTestPricer(t, newFakeSnapshot())
	assertDecimal(t, "price", p.ReferencePriceUSD(), "0")
}

func TestReferencePriceSinglePair(t *testing.T) {
	tests := []struct {
		name string
		pair model.Pair
		want string
	}{
		{name: "reference is token0", pair: busdWBNB("100", "30000"), want: "300"},
		{name: "reference is token1", pair: usdtWBNB("93000", "300"), want: "310"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := newFakeSnapshot()
			snap.addPair(tt.pair)
			p := newTestPricer(t, snap)
			assertDecimal(t, "price", p.ReferencePriceUSD(), tt.want)
		})
	}
}

func TestReferencePriceWeighted(t *testing.T) {
	snap := newFakeSnapshot()
	snap.addPair(busdWBNB("100", "30000"))
	snap.addPair(usdtWBNB("93000", "300"))
	p := newTestPricer(t, snap)

	// weights 100/400 and 300/400: 300*0.25 + 310*0.75
	assertDecimal(t, "price", p.ReferencePriceUSD(), "307.5")
}

func TestReferencePriceZeroCombinedLiquidity(t *testing.T) {
	snap := newFakeSnapshot()
	busdSide := busdWBNB("0", "0")
	busdSide.Token1Price = d("300")
	snap.pairs[busdSide.ID] = busdSide
	usdtSide := usdtWBNB("0", "0")
	usdtSide.Token0Price = d("310")
	snap.pairs[usdtSide.ID] = usdtSide

	p := newTestPricer(t, snap)
	assertDecimal(t, "price", p.ReferencePriceUSD(), "0")
}

func TestReferencePriceIgnoresPairWithoutReferenceToken(t *testing.T) {
	snap := newFakeSnapshot()
	snap.addPair(busdWBNB("100", "30000"))
	snap.addPair(model.Pair{ID: usdtPair, Token0: usdt, Token1: busd, Reserve0: d("1000"), Reserve1: d("1000")})

	p := newTestPricer(t, snap)
	assertDecimal(t, "price", p.ReferencePriceUSD(), "300")
}
