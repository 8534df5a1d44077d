// Package pricing derives USD and reference-currency prices for exchange
// tokens from pair reserves, and the whitelist-filtered volume and
// liquidity figures used for aggregate statistics.
//
// Every function here is a pure read over a Snapshot: unknown pairs,
// unknown tokens and unpriced tokens resolve to zero, never to an error.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"exchangePricing/internal/model"
)

// Pricer bundles the estimator, the resolver and the tracker around one
// snapshot.
type Pricer struct {
	cfg       Config
	logger    *zap.Logger
	estimator *ReferenceEstimator
	resolver  *TokenResolver
	tracker   *Tracker
}

// NewPricer validates cfg and builds a Pricer reading from snapshot.
func NewPricer(cfg Config, snapshot Snapshot, logger *zap.Logger) (*Pricer, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: snapshot is nil", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Pricer{
		cfg:       cfg,
		logger:    logger,
		estimator: newReferenceEstimator(cfg, snapshot, logger),
		resolver:  newTokenResolver(cfg, snapshot, logger),
		tracker:   NewTracker(cfg.Whitelist),
	}, nil
}

// WithSnapshot returns a Pricer with the same config reading from snapshot.
func (p *Pricer) WithSnapshot(snapshot Snapshot) *Pricer {
	return &Pricer{
		cfg:       p.cfg,
		logger:    p.logger,
		estimator: newReferenceEstimator(p.cfg, snapshot, p.logger),
		resolver:  newTokenResolver(p.cfg, snapshot, p.logger),
		tracker:   p.tracker,
	}
}

// Config returns the normalized config in use.
func (p *Pricer) Config() Config {
	return p.cfg
}

// ReferencePriceUSD returns the reference token's USD price.
func (p *Pricer) ReferencePriceUSD() decimal.Decimal {
	return p.estimator.PriceUSD()
}

// TokenPriceInReference returns token's derived reference price.
func (p *Pricer) TokenPriceInReference(token model.Token) decimal.Decimal {
	return p.resolver.PriceInReference(token)
}

// TrackedVolumeUSD is Tracker.VolumeUSD.
func (p *Pricer) TrackedVolumeUSD(referencePriceUSD, amount0 decimal.Decimal, token0 model.Token, amount1 decimal.Decimal, token1 model.Token) decimal.Decimal {
	return p.tracker.VolumeUSD(referencePriceUSD, amount0, token0, amount1, token1)
}

// TrackedLiquidityUSD is Tracker.LiquidityUSD.
func (p *Pricer) TrackedLiquidityUSD(referencePriceUSD, amount0 decimal.Decimal, token0 model.Token, amount1 decimal.Decimal, token1 model.Token) decimal.Decimal {
	return p.tracker.LiquidityUSD(referencePriceUSD, amount0, token0, amount1, token1)
}

// ReserveInReference values pair in reference units with the configured
// reference token.
func (p *Pricer) ReserveInReference(pair model.Pair, token0, token1 model.Token) decimal.Decimal {
	return ReserveInReference(pair, token0, token1, p.cfg.ReferenceToken)
}
