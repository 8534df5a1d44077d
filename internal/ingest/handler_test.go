package ingest

import (
	"context"
	"errors"
	"testing"

	"exchangePricing/internal/model"
	"exchangePricing/internal/storage/memory"
)

func applyAll(t *testing.T, handler *Handler, records []model.TypedEventRecord) {
	t.Helper()
	for _, rec := range records {
		if err := handler.Apply(context.Background(), rec); err != nil {
			t.Fatalf("apply %s at block %d: %v", rec.EventName, rec.BlockNumber, err)
		}
	}
}

func TestHandlerPairCreated(t *testing.T) {
	store := memory.NewStore(memory.Seed{})
	handler := newTestHandler(t, store, nil)
	flow := stablePairFlow(t)

	applyAll(t, handler, flow[:1])

	pair, ok := store.LoadPair(busdPair)
	if !ok {
		t.Fatalf("pair not created")
	}
	if pair.Token0 != busd || pair.Token1 != wbnb || pair.CreatedAtBlock != 100 {
		t.Fatalf("pair mismatch: %+v", pair)
	}
	if id, ok := store.FindPair(wbnb, busd); !ok || id != busdPair {
		t.Fatalf("pair index = %q, %v", id, ok)
	}
	token, ok := store.LoadToken(busd)
	if !ok || token.Symbol != "BUSD" || token.Decimals != 18 {
		t.Fatalf("token mismatch: %+v", token)
	}
	if token.DerivedReference.Valid {
		t.Fatalf("new token should be unpriced")
	}
	factory := store.Factory()
	if factory.ID != factoryAddr || factory.PairCount != 1 {
		t.Fatalf("factory mismatch: %+v", factory)
	}

	// Replaying the same creation is a no-op.
	applyAll(t, handler, flow[:1])
	if store.Factory().PairCount != 1 {
		t.Fatalf("pair count bumped twice")
	}
}

func TestHandlerPairCreatedWithoutMetadata(t *testing.T) {
	store := memory.NewStore(memory.Seed{})
	handler := newTestHandler(t, store, nil)

	rec := record(t, 100, 0, factoryAddr, model.EventPairCreated, model.PairCreatedEventData{
		Token0: cake, Token1: wbnb, Pair: cakePair, Index: "2",
	})
	err := handler.Apply(context.Background(), rec)
	if !errors.Is(err, ErrTokenMeta) {
		t.Fatalf("expected ErrTokenMeta, got %v", err)
	}
	if _, ok := store.LoadPair(cakePair); ok {
		t.Fatalf("pair should be skipped")
	}
	if store.Factory().PairCount != 0 {
		t.Fatalf("pair count should be unchanged")
	}

	foreign := record(t, 100, 1, "0x0000000000000000000000000000000000000001", model.EventPairCreated, model.PairCreatedEventData{
		Token0: busd, Token1: wbnb, Pair: busdPair, Index: "1",
	})
	if err := handler.Apply(context.Background(), foreign); err == nil {
		t.Fatalf("expected error for foreign factory")
	}
}

func TestHandlerSyncPricesAndLiquidity(t *testing.T) {
	store := memory.NewStore(memory.Seed{})
	handler := newTestHandler(t, store, nil)
	flow := stablePairFlow(t)

	applyAll(t, handler, flow[:2])

	assertDecimal(t, "bundle after first sync", store.Bundle().ReferencePriceUSD, "300")
	pair, _ := store.LoadPair(busdPair)
	assertDecimal(t, "token0 price", pair.Token0Price, "300")
	assertDecimal(t, "token1 price", pair.Token1Price, "0.003333333333333333")
	// The resolver reads the reference reserve stored before this sync, which is zero.
	busdToken, _ := store.LoadToken(busd)
	assertDecimal(t, "busd derived after first sync", busdToken.DerivedPrice(), "0")
	assertDecimal(t, "reserve reference", pair.ReserveReference, "10")
	assertDecimal(t, "reserve usd", pair.ReserveUSD, "3000")
	assertDecimal(t, "tracked reserve", pair.TrackedReserveReference, "10")

	applyAll(t, handler, flow[2:3])

	assertDecimal(t, "bundle after second sync", store.Bundle().ReferencePriceUSD, "250")
	busdToken, _ = store.LoadToken(busd)
	assertDecimal(t, "busd derived", busdToken.DerivedPrice(), "0.004")
	wbnbToken, _ := store.LoadToken(wbnb)
	assertDecimal(t, "wbnb derived", wbnbToken.DerivedPrice(), "1")

	pair, _ = store.LoadPair(busdPair)
	assertDecimal(t, "reserve0", pair.Reserve0, "2500")
	assertDecimal(t, "reserve reference", pair.ReserveReference, "20")
	assertDecimal(t, "reserve usd", pair.ReserveUSD, "5000")
	assertDecimal(t, "tracked reserve", pair.TrackedReserveReference, "20")

	factory := store.Factory()
	assertDecimal(t, "factory liquidity", factory.TotalLiquidityReference, "20")
	assertDecimal(t, "factory liquidity usd", factory.TotalLiquidityUSD, "5000")
	assertDecimal(t, "busd total liquidity", busdToken.TotalLiquidity, "2500")
	assertDecimal(t, "wbnb total liquidity", wbnbToken.TotalLiquidity, "10")
}

func TestHandlerSwapAndMint(t *testing.T) {
	store := memory.NewStore(memory.Seed{})
	handler := newTestHandler(t, store, nil)
	applyAll(t, handler, stablePairFlow(t))

	changes := store.Drain()
	if len(changes.Swaps) != 1 || len(changes.LiquidityEvents) != 1 {
		t.Fatalf("records = %d swaps, %d liquidity events", len(changes.Swaps), len(changes.LiquidityEvents))
	}

	swap := changes.Swaps[0]
	if swap.ID != "0xtx103-0" || swap.Pair != busdPair {
		t.Fatalf("swap identity mismatch: %+v", swap)
	}
	assertDecimal(t, "swap amount0 in", swap.Amount0In, "250")
	assertDecimal(t, "swap amount1 out", swap.Amount1Out, "1")
	assertDecimal(t, "swap usd", swap.AmountUSD, "250")

	mint := changes.LiquidityEvents[0]
	if mint.Kind != model.LiquidityMint || mint.ID != "0xtx103-1" {
		t.Fatalf("mint identity mismatch: %+v", mint)
	}
	assertDecimal(t, "mint usd", mint.AmountUSD, "500")
	assertDecimal(t, "mint tracked usd", mint.TrackedAmountUSD, "500")

	pair, _ := store.LoadPair(busdPair)
	assertDecimal(t, "pair volume token0", pair.VolumeToken0, "250")
	assertDecimal(t, "pair volume token1", pair.VolumeToken1, "1")
	assertDecimal(t, "pair volume usd", pair.VolumeUSD, "250")
	assertDecimal(t, "pair untracked usd", pair.UntrackedVolumeUSD, "250")
	if pair.TxCount != 2 {
		t.Fatalf("pair tx count = %d", pair.TxCount)
	}

	factory := store.Factory()
	assertDecimal(t, "factory volume usd", factory.TotalVolumeUSD, "250")
	assertDecimal(t, "factory volume reference", factory.TotalVolumeReference, "1")
	if factory.TxCount != 2 {
		t.Fatalf("factory tx count = %d", factory.TxCount)
	}

	busdToken, _ := store.LoadToken(busd)
	assertDecimal(t, "busd trade volume", busdToken.TradeVolume, "250")
	assertDecimal(t, "busd trade volume usd", busdToken.TradeVolumeUSD, "250")
	if busdToken.TxCount != 2 {
		t.Fatalf("busd tx count = %d", busdToken.TxCount)
	}
}

func TestHandlerUnknownPairAndBadPayload(t *testing.T) {
	store := memory.NewStore(memory.Seed{})
	handler := newTestHandler(t, store, nil)

	rec := record(t, 200, 0, cakePair, model.EventSync, model.SyncEventData{Reserve0: "1", Reserve1: "1"})
	if err := handler.Apply(context.Background(), rec); !errors.Is(err, ErrUnknownPair) {
		t.Fatalf("expected ErrUnknownPair, got %v", err)
	}
	if store.Pending() != 0 {
		t.Fatalf("unknown pair should not change the snapshot")
	}

	applyAll(t, handler, stablePairFlow(t)[:1])
	bad := record(t, 201, 0, busdPair, model.EventSync, model.SyncEventData{Reserve0: "12abc", Reserve1: "1"})
	if err := handler.Apply(context.Background(), bad); err == nil {
		t.Fatalf("expected error for malformed reserve")
	}

	unsupported := record(t, 202, 0, busdPair, "Collect", struct{}{})
	if err := handler.Apply(context.Background(), unsupported); err == nil {
		t.Fatalf("expected error for unsupported event")
	}
}
