package model

import "github.com/shopspring/decimal"

// Pair is a constant-product liquidity pair.
//
// Token0Price is Reserve0/Reserve1 (token0 per token1) and Token1Price is
// Reserve1/Reserve0 (token1 per token0).
type Pair struct {
	ID     string `json:"id"`
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`

	Reserve0 decimal.Decimal `json:"reserve0"`
	Reserve1 decimal.Decimal `json:"reserve1"`

	ReserveReference        decimal.Decimal `json:"reserve_reference"`
	ReserveUSD              decimal.Decimal `json:"reserve_usd"`
	TrackedReserveReference decimal.Decimal `json:"tracked_reserve_reference"`

	Token0Price decimal.Decimal `json:"token0_price"`
	Token1Price decimal.Decimal `json:"token1_price"`

	VolumeToken0       decimal.Decimal `json:"volume_token0"`
	VolumeToken1       decimal.Decimal `json:"volume_token1"`
	VolumeUSD          decimal.Decimal `json:"volume_usd"`
	UntrackedVolumeUSD decimal.Decimal `json:"untracked_volume_usd"`
	TxCount            uint64          `json:"tx_count"`

	CreatedAtBlock     uint64 `json:"created_at_block"`
	CreatedAtTimestamp uint64 `json:"created_at_timestamp"`
}

// Has reports whether token is one of the pair's constituents.
func (p Pair) Has(token string) bool {
	return p.Token0 == token || p.Token1 == token
}
