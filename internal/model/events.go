package model

// Event names produced by the decoder.
const (
	EventPairCreated = "PairCreated"
	EventSync        = "Sync"
	EventSwap        = "Swap"
	EventMint        = "Mint"
	EventBurn        = "Burn"
)

// PairCreatedEventData is the decoded factory PairCreated payload.
type PairCreatedEventData struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
	Pair   string `json:"pair"`
	Index  string `json:"index"`
}

// SyncEventData is the decoded Sync payload. Reserves are raw integers.
type SyncEventData struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}

// SwapEventData is the decoded Swap payload.
type SwapEventData struct {
	Sender     string `json:"sender"`
	To         string `json:"to"`
	Amount0In  string `json:"amount0_in"`
	Amount1In  string `json:"amount1_in"`
	Amount0Out string `json:"amount0_out"`
	Amount1Out string `json:"amount1_out"`
}

// MintEventData is the decoded Mint payload.
type MintEventData struct {
	Sender  string `json:"sender"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

// BurnEventData is the decoded Burn payload.
type BurnEventData struct {
	Sender  string `json:"sender"`
	To      string `json:"to"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}
