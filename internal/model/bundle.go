package model

import "github.com/shopspring/decimal"

// BundleID is the id of the single bundle record.
const BundleID = "1"

// Bundle holds the reference-currency price in USD.
type Bundle struct {
	ID                string          `json:"id"`
	ReferencePriceUSD decimal.Decimal `json:"reference_price_usd"`
}

// Factory holds exchange-wide totals.
type Factory struct {
	ID                      string          `json:"id"`
	PairCount               uint64          `json:"pair_count"`
	TxCount                 uint64          `json:"tx_count"`
	TotalVolumeUSD          decimal.Decimal `json:"total_volume_usd"`
	TotalVolumeReference    decimal.Decimal `json:"total_volume_reference"`
	UntrackedVolumeUSD      decimal.Decimal `json:"untracked_volume_usd"`
	TotalLiquidityReference decimal.Decimal `json:"total_liquidity_reference"`
	TotalLiquidityUSD       decimal.Decimal `json:"total_liquidity_usd"`
}
