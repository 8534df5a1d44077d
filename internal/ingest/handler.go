// Package ingest applies decoded exchange events to an in-memory snapshot and
// keeps prices, reserves and volume totals current as it goes.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"exchangePricing/internal/model"
	"exchangePricing/internal/pricing"
	"exchangePricing/internal/storage/memory"
)

var (
	// ErrUnknownPair marks an event for a pair the snapshot has never seen.
	ErrUnknownPair = errors.New("unknown pair")
	// ErrUnknownToken marks a pair whose token records are missing.
	ErrUnknownToken = errors.New("unknown token")
	// ErrTokenMeta marks a PairCreated skipped because token metadata was unavailable.
	ErrTokenMeta = errors.New("token metadata unavailable")
)

var half = decimal.New(5, -1)

// TokenMetaSource resolves ERC-20 metadata for newly seen tokens.
type TokenMetaSource interface {
	TokenMeta(ctx context.Context, token string) (model.TokenMeta, error)
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Pricing   pricing.Config
	FactoryID string
	Tokens    TokenMetaSource
	Pairs     PairLookup
}

// Handler applies typed events to a memory.Store. Not safe for concurrent use.
type Handler struct {
	store     *memory.Store
	pricer    *pricing.Pricer
	finder    *pairFinder
	tokens    TokenMetaSource
	factoryID string
	logger    *zap.Logger
}

// NewHandler builds a Handler over store.
func NewHandler(cfg HandlerConfig, store *memory.Store, logger *zap.Logger) (*Handler, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	finder := &pairFinder{store: store, lookup: cfg.Pairs, logger: logger}
	pricer, err := pricing.NewPricer(cfg.Pricing, snapshot{Store: store, finder: finder, ctx: context.Background()}, logger)
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:     store,
		pricer:    pricer,
		finder:    finder,
		tokens:    cfg.Tokens,
		factoryID: pricing.NormalizeID(cfg.FactoryID),
		logger:    logger,
	}, nil
}

// Apply applies one typed event.
func (h *Handler) Apply(ctx context.Context, record model.TypedEventRecord) error {
	pricer := h.pricer.WithSnapshot(snapshot{Store: h.store, finder: h.finder, ctx: ctx})

	switch record.EventName {
	case model.EventPairCreated:
		var data model.PairCreatedEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode pair created: %w", err)
		}
		return h.handlePairCreated(ctx, record, data)
	case model.EventSync:
		var data model.SyncEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode sync: %w", err)
		}
		return h.handleSync(pricer, record, data)
	case model.EventSwap:
		var data model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return h.handleSwap(pricer, record, data)
	case model.EventMint:
		var data model.MintEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode mint: %w", err)
		}
		return h.handleLiquidity(pricer, record, model.LiquidityMint, data.Sender, data.Amount0, data.Amount1)
	case model.EventBurn:
		var data model.BurnEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode burn: %w", err)
		}
		return h.handleLiquidity(pricer, record, model.LiquidityBurn, data.Sender, data.Amount0, data.Amount1)
	default:
		return fmt.Errorf("unsupported event name: %s", record.EventName)
	}
}

func (h *Handler) handlePairCreated(ctx context.Context, record model.TypedEventRecord, data model.PairCreatedEventData) error {
	source := pricing.NormalizeID(record.Address)
	if h.factoryID != "" && source != h.factoryID {
		return fmt.Errorf("pair created by %s, expected factory %s", source, h.factoryID)
	}

	pairID := pricing.NormalizeID(data.Pair)
	token0ID := pricing.NormalizeID(data.Token0)
	token1ID := pricing.NormalizeID(data.Token1)
	if _, ok := h.store.LoadPair(pairID); ok {
		return nil
	}

	token0, err := h.ensureToken(ctx, token0ID)
	if err != nil {
		return err
	}
	token1, err := h.ensureToken(ctx, token1ID)
	if err != nil {
		return err
	}
	h.store.PutToken(token0)
	h.store.PutToken(token1)

	h.store.PutPair(model.Pair{
		ID:                 pairID,
		Token0:             token0ID,
		Token1:             token1ID,
		CreatedAtBlock:     record.BlockNumber,
		CreatedAtTimestamp: record.Timestamp,
	})
	h.finder.forget(token0ID, token1ID)

	factory := h.factory()
	factory.PairCount++
	h.store.SetFactory(factory)

	h.logger.Debug("pair created",
		zap.String("pair", pairID),
		zap.String("token0", token0ID),
		zap.String("token1", token1ID),
	)
	return nil
}

func (h *Handler) ensureToken(ctx context.Context, id string) (model.Token, error) {
	if token, ok := h.store.LoadToken(id); ok {
		return token, nil
	}
	if h.tokens == nil {
		return model.Token{}, fmt.Errorf("%w: %s: no metadata source", ErrTokenMeta, id)
	}
	meta, err := h.tokens.TokenMeta(ctx, id)
	if err != nil {
		return model.Token{}, fmt.Errorf("%w: %s: %v", ErrTokenMeta, id, err)
	}
	return model.Token{
		ID:       id,
		Symbol:   meta.Symbol,
		Name:     meta.Name,
		Decimals: meta.Decimals,
	}, nil
}

func (h *Handler) handleSync(pricer *pricing.Pricer, record model.TypedEventRecord, data model.SyncEventData) error {
	pair, token0, token1, err := h.loadPair(record.Address)
	if err != nil {
		return err
	}
	reserve0, err := tokenAmount(data.Reserve0, token0.Decimals)
	if err != nil {
		return fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := tokenAmount(data.Reserve1, token1.Decimals)
	if err != nil {
		return fmt.Errorf("reserve1: %w", err)
	}

	factory := h.factory()
	factory.TotalLiquidityReference = factory.TotalLiquidityReference.Sub(pair.TrackedReserveReference)
	token0.TotalLiquidity = token0.TotalLiquidity.Sub(pair.Reserve0)
	token1.TotalLiquidity = token1.TotalLiquidity.Sub(pair.Reserve1)

	pair.Reserve0 = reserve0
	pair.Reserve1 = reserve1
	pair.Token0Price, pair.Token1Price = pricing.SpotPrices(reserve0, reserve1)
	h.store.PutPair(pair)

	referencePrice, token0, token1 := h.refreshPrices(pricer, token0, token1)

	trackedReference := decimal.Zero
	if !referencePrice.IsZero() {
		trackedLiquidityUSD := pricer.TrackedLiquidityUSD(referencePrice, reserve0, token0, reserve1, token1)
		trackedReference = pricing.Div(trackedLiquidityUSD, referencePrice)
	}
	pair.TrackedReserveReference = trackedReference
	pair.ReserveReference = pricer.ReserveInReference(pair, token0, token1)
	pair.ReserveUSD = pair.ReserveReference.Mul(referencePrice)

	factory.TotalLiquidityReference = factory.TotalLiquidityReference.Add(trackedReference)
	factory.TotalLiquidityUSD = factory.TotalLiquidityReference.Mul(referencePrice)
	token0.TotalLiquidity = token0.TotalLiquidity.Add(reserve0)
	token1.TotalLiquidity = token1.TotalLiquidity.Add(reserve1)

	h.store.PutPair(pair)
	h.store.PutToken(token0)
	h.store.PutToken(token1)
	h.store.SetFactory(factory)
	return nil
}

func (h *Handler) handleSwap(pricer *pricing.Pricer, record model.TypedEventRecord, data model.SwapEventData) error {
	pair, token0, token1, err := h.loadPair(record.Address)
	if err != nil {
		return err
	}

	var amounts [4]decimal.Decimal
	raws := [4]string{data.Amount0In, data.Amount1In, data.Amount0Out, data.Amount1Out}
	for i, raw := range raws {
		decimals := token0.Decimals
		if i%2 == 1 {
			decimals = token1.Decimals
		}
		if amounts[i], err = tokenAmount(raw, decimals); err != nil {
			return fmt.Errorf("swap amount %d: %w", i, err)
		}
	}
	amount0In, amount1In, amount0Out, amount1Out := amounts[0], amounts[1], amounts[2], amounts[3]
	amount0Total := amount0In.Add(amount0Out)
	amount1Total := amount1In.Add(amount1Out)

	referencePrice, token0, token1 := h.refreshPrices(pricer, token0, token1)

	derivedReference := token0.DerivedPrice().Mul(amount0Total).
		Add(token1.DerivedPrice().Mul(amount1Total)).
		Mul(half)
	derivedUSD := derivedReference.Mul(referencePrice)
	trackedUSD := pricer.TrackedVolumeUSD(referencePrice, amount0Total, token0, amount1Total, token1)
	trackedReference := decimal.Zero
	if !referencePrice.IsZero() {
		trackedReference = pricing.Div(trackedUSD, referencePrice)
	}

	token0.TradeVolume = token0.TradeVolume.Add(amount0Total)
	token0.TradeVolumeUSD = token0.TradeVolumeUSD.Add(trackedUSD)
	token0.UntrackedVolumeUSD = token0.UntrackedVolumeUSD.Add(derivedUSD)
	token0.TxCount++
	token1.TradeVolume = token1.TradeVolume.Add(amount1Total)
	token1.TradeVolumeUSD = token1.TradeVolumeUSD.Add(trackedUSD)
	token1.UntrackedVolumeUSD = token1.UntrackedVolumeUSD.Add(derivedUSD)
	token1.TxCount++

	pair.VolumeToken0 = pair.VolumeToken0.Add(amount0Total)
	pair.VolumeToken1 = pair.VolumeToken1.Add(amount1Total)
	pair.VolumeUSD = pair.VolumeUSD.Add(trackedUSD)
	pair.UntrackedVolumeUSD = pair.UntrackedVolumeUSD.Add(derivedUSD)
	pair.TxCount++

	factory := h.factory()
	factory.TotalVolumeUSD = factory.TotalVolumeUSD.Add(trackedUSD)
	factory.TotalVolumeReference = factory.TotalVolumeReference.Add(trackedReference)
	factory.UntrackedVolumeUSD = factory.UntrackedVolumeUSD.Add(derivedUSD)
	factory.TxCount++

	amountUSD := trackedUSD
	if amountUSD.IsZero() {
		amountUSD = derivedUSD
	}

	h.store.PutToken(token0)
	h.store.PutToken(token1)
	h.store.PutPair(pair)
	h.store.SetFactory(factory)
	h.store.AddSwap(model.Swap{
		ID:          eventID(record.TxHash, record.LogIndex),
		Pair:        pair.ID,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		BlockNumber: record.BlockNumber,
		Timestamp:   record.Timestamp,
		Sender:      data.Sender,
		To:          data.To,
		Amount0In:   amount0In,
		Amount1In:   amount1In,
		Amount0Out:  amount0Out,
		Amount1Out:  amount1Out,
		AmountUSD:   amountUSD,
	})
	return nil
}

func (h *Handler) handleLiquidity(pricer *pricing.Pricer, record model.TypedEventRecord, kind model.LiquidityKind, sender, raw0, raw1 string) error {
	pair, token0, token1, err := h.loadPair(record.Address)
	if err != nil {
		return err
	}
	amount0, err := tokenAmount(raw0, token0.Decimals)
	if err != nil {
		return fmt.Errorf("%s amount0: %w", kind, err)
	}
	amount1, err := tokenAmount(raw1, token1.Decimals)
	if err != nil {
		return fmt.Errorf("%s amount1: %w", kind, err)
	}

	referencePrice, token0, token1 := h.refreshPrices(pricer, token0, token1)

	amountUSD := token0.DerivedPrice().Mul(amount0).
		Add(token1.DerivedPrice().Mul(amount1)).
		Mul(referencePrice)
	trackedUSD := pricer.TrackedLiquidityUSD(referencePrice, amount0, token0, amount1, token1)

	token0.TxCount++
	token1.TxCount++
	pair.TxCount++
	factory := h.factory()
	factory.TxCount++

	h.store.PutToken(token0)
	h.store.PutToken(token1)
	h.store.PutPair(pair)
	h.store.SetFactory(factory)
	h.store.AddLiquidityEvent(model.LiquidityEvent{
		ID:               eventID(record.TxHash, record.LogIndex),
		Kind:             kind,
		Pair:             pair.ID,
		TxHash:           record.TxHash,
		LogIndex:         record.LogIndex,
		BlockNumber:      record.BlockNumber,
		Timestamp:        record.Timestamp,
		Sender:           sender,
		Amount0:          amount0,
		Amount1:          amount1,
		AmountUSD:        amountUSD,
		TrackedAmountUSD: trackedUSD,
	})
	return nil
}

// refreshPrices recomputes the bundle price and both tokens' derived prices.
// The bundle is stored; the tokens are returned for the caller to store.
func (h *Handler) refreshPrices(pricer *pricing.Pricer, token0, token1 model.Token) (decimal.Decimal, model.Token, model.Token) {
	bundle := h.store.Bundle()
	bundle.ReferencePriceUSD = pricer.ReferencePriceUSD()
	h.store.SetBundle(bundle)

	price0 := pricer.TokenPriceInReference(token0)
	price1 := pricer.TokenPriceInReference(token1)
	token0.DerivedReference = decimal.NewNullDecimal(price0)
	token1.DerivedReference = decimal.NewNullDecimal(price1)
	return bundle.ReferencePriceUSD, token0, token1
}

func (h *Handler) loadPair(address string) (model.Pair, model.Token, model.Token, error) {
	id := pricing.NormalizeID(address)
	pair, ok := h.store.LoadPair(id)
	if !ok {
		return model.Pair{}, model.Token{}, model.Token{}, fmt.Errorf("%w: %s", ErrUnknownPair, id)
	}
	token0, ok := h.store.LoadToken(pair.Token0)
	if !ok {
		return model.Pair{}, model.Token{}, model.Token{}, fmt.Errorf("%w: %s in pair %s", ErrUnknownToken, pair.Token0, id)
	}
	token1, ok := h.store.LoadToken(pair.Token1)
	if !ok {
		return model.Pair{}, model.Token{}, model.Token{}, fmt.Errorf("%w: %s in pair %s", ErrUnknownToken, pair.Token1, id)
	}
	return pair, token0, token1, nil
}

func (h *Handler) factory() model.Factory {
	factory := h.store.Factory()
	if factory.ID == "" {
		factory.ID = h.factoryID
	}
	return factory
}
