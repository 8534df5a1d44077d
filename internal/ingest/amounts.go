package ingest

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// tokenAmount scales a raw integer amount by the token's decimals.
func tokenAmount(raw string, decimals uint8) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return decimal.NewFromBigInt(value, -int32(decimals)), nil
}

func eventID(txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(txHash), logIndex)
}
