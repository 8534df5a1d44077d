package pricing

import "exchangePricing/internal/model"

// PairLoader loads a pair record by id.
type PairLoader interface {
	LoadPair(id string) (model.Pair, bool)
}

// TokenLoader loads a token record by id.
type TokenLoader interface {
	LoadToken(id string) (model.Token, bool)
}

// PairFinder resolves the pair address for two tokens, in either order.
type PairFinder interface {
	FindPair(tokenA, tokenB string) (string, bool)
}

// Snapshot is a frozen, read-only view of pairs and tokens.
type Snapshot interface {
	PairLoader
	TokenLoader
	PairFinder
}
