package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
)

const factoryGetPairABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "", "type": "address"}, {"internalType": "address", "name": "", "type": "address"}], "name": "getPair", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const defaultFactoryCacheSize = 4096

var (
	getPairABI     abi.ABI
	getPairABIOnce sync.Once
	getPairABIErr  error
)

func factoryABI() (abi.ABI, error) {
	getPairABIOnce.Do(func() {
		getPairABI, getPairABIErr = abi.JSON(strings.NewReader(factoryGetPairABIJSON))
	})
	return getPairABI, getPairABIErr
}

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	Address   common.Address
	CacheSize int
	Retry     RetryPolicy
}

// Factory resolves pair addresses through the exchange factory's getPair.
// Pair addresses never change once created, so positive and negative
// answers are both cached; negatives are dropped when a pair is created.
type Factory struct {
	cfg    FactoryConfig
	caller Caller
	cache  *lru.Cache[string, common.Address]
}

// NewFactory builds a Factory around caller.
func NewFactory(cfg FactoryConfig, caller Caller) (*Factory, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("factory address is required")
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultFactoryCacheSize
	}
	cache, err := lru.New[string, common.Address](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("factory cache: %w", err)
	}
	return &Factory{cfg: cfg, caller: caller, cache: cache}, nil
}

// GetPair returns the pair for tokenA and tokenB, or the zero address if
// none exists.
func (f *Factory) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	key := cacheKey(tokenA, tokenB)
	if pair, ok := f.cache.Get(key); ok {
		return pair, nil
	}

	parsed, err := factoryABI()
	if err != nil {
		return common.Address{}, err
	}
	data, err := parsed.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack getPair: %w", err)
	}

	var resp []byte
	err = f.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = f.caller.CallContract(ctx, ethereum.CallMsg{To: &f.cfg.Address, Data: data}, nil)
		return err
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("call getPair: %w", err)
	}

	values, err := parsed.Unpack("getPair", resp)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack getPair: %w", err)
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("getPair return size %d", len(values))
	}
	pair, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("getPair unexpected type %T", values[0])
	}

	f.cache.Add(key, pair)
	return pair, nil
}

// Forget drops a cached answer, used when a PairCreated event is seen.
func (f *Factory) Forget(tokenA, tokenB common.Address) {
	f.cache.Remove(cacheKey(tokenA, tokenB))
}

func cacheKey(a, b common.Address) string {
	x, y := a.Hex(), b.Hex()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}
