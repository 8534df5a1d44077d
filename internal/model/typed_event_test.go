package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSwapEventDataJSONStringFields(t *testing.T) {
	payload := SwapEventData{
		Sender:     "0x1111111111111111111111111111111111111111",
		To:         "0x2222222222222222222222222222222222222222",
		Amount0In:  "12345678901234567890",
		Amount1In:  "0",
		Amount0Out: "0",
		Amount1Out: "42",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"amount0_in", "amount1_in", "amount0_out", "amount1_out"} {
		if _, ok := decoded[key].(string); !ok {
			t.Fatalf("%s should be string", key)
		}
	}
}

func TestTokenDerivedPrice(t *testing.T) {
	var unpriced Token
	if !unpriced.DerivedPrice().IsZero() {
		t.Fatalf("unpriced token should resolve to zero")
	}

	priced := Token{DerivedReference: decimal.NewNullDecimal(decimal.RequireFromString("0.01"))}
	if !priced.DerivedPrice().Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("derived price mismatch: %s", priced.DerivedPrice())
	}

	zero := Token{DerivedReference: decimal.NewNullDecimal(decimal.Zero)}
	if !zero.DerivedPrice().Equal(unpriced.DerivedPrice()) {
		t.Fatalf("zero-priced and unpriced tokens should be indistinguishable")
	}
}
