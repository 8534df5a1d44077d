package model

import "github.com/shopspring/decimal"

// Swap is a priced swap record.
type Swap struct {
	ID          string          `json:"id"`
	Pair        string          `json:"pair"`
	TxHash      string          `json:"tx_hash"`
	LogIndex    uint64          `json:"log_index"`
	BlockNumber uint64          `json:"block_number"`
	Timestamp   uint64          `json:"timestamp"`
	Sender      string          `json:"sender"`
	To          string          `json:"to"`
	Amount0In   decimal.Decimal `json:"amount0_in"`
	Amount1In   decimal.Decimal `json:"amount1_in"`
	Amount0Out  decimal.Decimal `json:"amount0_out"`
	Amount1Out  decimal.Decimal `json:"amount1_out"`
	AmountUSD   decimal.Decimal `json:"amount_usd"`
}

// LiquidityKind distinguishes mints from burns.
type LiquidityKind string

const (
	LiquidityMint LiquidityKind = "mint"
	LiquidityBurn LiquidityKind = "burn"
)

// LiquidityEvent is a priced mint or burn record.
type LiquidityEvent struct {
	ID               string          `json:"id"`
	Kind             LiquidityKind   `json:"kind"`
	Pair             string          `json:"pair"`
	TxHash           string          `json:"tx_hash"`
	LogIndex         uint64          `json:"log_index"`
	BlockNumber      uint64          `json:"block_number"`
	Timestamp        uint64          `json:"timestamp"`
	Sender           string          `json:"sender"`
	Amount0          decimal.Decimal `json:"amount0"`
	Amount1          decimal.Decimal `json:"amount1"`
	AmountUSD        decimal.Decimal `json:"amount_usd"`
	TrackedAmountUSD decimal.Decimal `json:"tracked_amount_usd"`
}
