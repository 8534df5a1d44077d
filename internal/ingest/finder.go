package ingest

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"exchangePricing/internal/storage/memory"
)

// PairLookup resolves a pair address for two tokens on chain. The zero
// address means no pair exists.
type PairLookup interface {
	GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
}

type forgetter interface {
	Forget(tokenA, tokenB common.Address)
}

// pairFinder answers FindPair from the snapshot index and falls back to the
// factory when a lookup is configured.
type pairFinder struct {
	store  *memory.Store
	lookup PairLookup
	logger *zap.Logger
}

func (f *pairFinder) FindPair(ctx context.Context, tokenA, tokenB string) (string, bool) {
	if id, ok := f.store.FindPair(tokenA, tokenB); ok {
		return id, true
	}
	if f.lookup == nil || !common.IsHexAddress(tokenA) || !common.IsHexAddress(tokenB) {
		return "", false
	}

	addr, err := f.lookup.GetPair(ctx, common.HexToAddress(tokenA), common.HexToAddress(tokenB))
	if err != nil {
		f.logger.Warn("factory pair lookup failed",
			zap.String("token_a", tokenA),
			zap.String("token_b", tokenB),
			zap.Error(err),
		)
		return "", false
	}
	if addr == (common.Address{}) {
		return "", false
	}

	id := strings.ToLower(addr.Hex())
	f.store.IndexPair(tokenA, tokenB, id)
	return id, true
}

func (f *pairFinder) forget(tokenA, tokenB string) {
	fg, ok := f.lookup.(forgetter)
	if !ok || !common.IsHexAddress(tokenA) || !common.IsHexAddress(tokenB) {
		return
	}
	fg.Forget(common.HexToAddress(tokenA), common.HexToAddress(tokenB))
}

// snapshot serves the pricer for one event: records from the store, pairs
// through the finder under the event's context.
type snapshot struct {
	*memory.Store
	finder *pairFinder
	ctx    context.Context
}

func (s snapshot) FindPair(tokenA, tokenB string) (string, bool) {
	return s.finder.FindPair(s.ctx, tokenA, tokenB)
}
