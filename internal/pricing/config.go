package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is returned when a Config cannot be used for pricing.
var ErrInvalidConfig = errors.New("invalid pricing config")

// Config holds the pricing constants.
type Config struct {
	// ReferenceToken is the wrapped native coin every derived price is expressed in.
	ReferenceToken string
	// StablePairs are reference/stablecoin pairs used to price the reference token in USD.
	StablePairs []string
	// Whitelist is scanned in order; the first sufficiently liquid pair wins.
	Whitelist []string
	// MinimumLiquidity is the exclusive lower bound on a pair's reference reserve.
	MinimumLiquidity decimal.Decimal
}

// DefaultConfig returns the PancakeSwap V2 constants on BNB Chain mainnet.
func DefaultConfig() Config {
	return Config{
		ReferenceToken: "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c",
		StablePairs: []string{
			"0x58f876857a02d6762e0101bb5c46a8c1ed44dc16", // BUSD/WBNB
			"0x16b9a82891338f9ba80e2d6970fdda79d1eb0dae", // USDT/WBNB
		},
		Whitelist: []string{
			"0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c", // WBNB
			"0xe9e7cea3dedca5984780bafc599bd69add087d56", // BUSD
			"0x55d398326f99059ff775485246999027b3197955", // USDT
			"0x2170ed0880ac9a755fd29b2688956bd959f933f8", // ETH
		},
		MinimumLiquidity: decimal.NewFromInt(10),
	}
}

// Normalized returns a copy with every identifier lower-cased and trimmed.
// Order is preserved.
func (c Config) Normalized() Config {
	out := Config{
		ReferenceToken:   NormalizeID(c.ReferenceToken),
		StablePairs:      normalizeIDs(c.StablePairs),
		Whitelist:        normalizeIDs(c.Whitelist),
		MinimumLiquidity: c.MinimumLiquidity,
	}
	return out
}

// Validate checks that the config can drive the estimator and resolver.
func (c Config) Validate() error {
	if c.ReferenceToken == "" {
		return fmt.Errorf("%w: reference token is required", ErrInvalidConfig)
	}
	if c.MinimumLiquidity.IsNegative() {
		return fmt.Errorf("%w: minimum liquidity must not be negative", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Whitelist))
	for _, id := range c.Whitelist {
		if id == "" {
			return fmt.Errorf("%w: empty whitelist entry", ErrInvalidConfig)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate whitelist entry %s", ErrInvalidConfig, id)
		}
		seen[id] = struct{}{}
	}
	for _, id := range c.StablePairs {
		if id == "" {
			return fmt.Errorf("%w: empty stable pair", ErrInvalidConfig)
		}
	}
	return nil
}

// NormalizeID lower-cases and trims an address-like identifier.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizeIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, NormalizeID(id))
	}
	return out
}
