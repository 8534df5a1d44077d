package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"exchangePricing/internal/model"
)

func priced(id, derived string) model.Token {
	return model.Token{ID: id, DerivedReference: decimal.NewNullDecimal(d(derived))}
}

func TestTrackedVolumeAndLiquidity(t *testing.T) {
	tracker := NewTracker(DefaultConfig().Whitelist)
	ref := d("300")

	tests := []struct {
		name          string
		token0        model.Token
		amount0       string
		token1        model.Token
		amount1       string
		wantVolume    string
		wantLiquidity string
	}{
		{
			// 2 WBNB = 600 USD against 490 BUSD at 1.2 USD = 588 USD.
			name:          "both whitelisted",
			token0:        priced(wbnb, "1"),
			amount0:       "2",
			token1:        priced(busd, "0.004"),
			amount1:       "490",
			wantVolume:    "594",
			wantLiquidity: "1188",
		},
		{
			name:          "only token0 whitelisted",
			token0:        priced(weth, "0.01"),
			amount0:       "100",
			token1:        priced(cake, "7"),
			amount1:       "123456",
			wantVolume:    "300",
			wantLiquidity: "600",
		},
		{
			name:          "only token1 whitelisted",
			token0:        priced(cake, "7"),
			amount0:       "123456",
			token1:        priced(usdt, "0.01"),
			amount1:       "100",
			wantVolume:    "300",
			wantLiquidity: "600",
		},
		{
			name:          "neither whitelisted",
			token0:        priced(cake, "7"),
			amount0:       "123456",
			token1:        priced("0xdddddddddddddddddddddddddddddddddddddddd", "3"),
			amount1:       "999",
			wantVolume:    "0",
			wantLiquidity: "0",
		},
		{
			name:          "unpriced whitelisted token",
			token0:        model.Token{ID: weth},
			amount0:       "5",
			token1:        priced(cake, "7"),
			amount1:       "1",
			wantVolume:    "0",
			wantLiquidity: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			volume := tracker.VolumeUSD(ref, d(tt.amount0), tt.token0, d(tt.amount1), tt.token1)
			assertDecimal(t, "volume", volume, tt.wantVolume)
			liquidity := tracker.LiquidityUSD(ref, d(tt.amount0), tt.token0, d(tt.amount1), tt.token1)
			assertDecimal(t, "liquidity", liquidity, tt.wantLiquidity)
		})
	}
}

func TestTrackedVolumeBothWhitelistedIsAverage(t *testing.T) {
	tracker := NewTracker([]string{wbnb, busd})
	ref := d("250")
	a0, p0 := d("3"), d("1")
	a1, p1 := d("700"), d("0.004")

	got := tracker.VolumeUSD(ref, a0, priced(wbnb, "1"), a1, priced(busd, "0.004"))
	want := a0.Mul(p0.Mul(ref)).Add(a1.Mul(p1.Mul(ref))).Div(two)
	if !got.Equal(want) {
		t.Fatalf("volume = %s, want %s", got, want)
	}
}

func TestTrackedLiquidityIgnoresUnlistedSide(t *testing.T) {
	tracker := NewTracker([]string{wbnb})
	ref := d("300")
	token0 := priced(wbnb, "1")

	first := tracker.LiquidityUSD(ref, d("4"), token0, d("1"), priced(cake, "1"))
	second := tracker.LiquidityUSD(ref, d("4"), token0, d("99999"), priced(cake, "0.5"))
	assertDecimal(t, "first", first, "2400")
	assertDecimal(t, "second", second, "2400")
}
