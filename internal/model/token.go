package model

import "github.com/shopspring/decimal"

// Token is an ERC20 token traded on the exchange.
type Token struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`

	// DerivedReference is the token price in reference-currency units.
	// Valid is false until the token has been priced at least once.
	DerivedReference decimal.NullDecimal `json:"derived_reference"`

	TradeVolume        decimal.Decimal `json:"trade_volume"`
	TradeVolumeUSD     decimal.Decimal `json:"trade_volume_usd"`
	UntrackedVolumeUSD decimal.Decimal `json:"untracked_volume_usd"`
	TotalLiquidity     decimal.Decimal `json:"total_liquidity"`
	TxCount            uint64          `json:"tx_count"`
}

// DerivedPrice returns the derived reference price, or zero when the token
// has not been priced yet. Callers cannot tell the two cases apart.
func (t Token) DerivedPrice() decimal.Decimal {
	if !t.DerivedReference.Valid {
		return decimal.Zero
	}
	return t.DerivedReference.Decimal
}

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
