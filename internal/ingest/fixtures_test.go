package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"exchangePricing/internal/model"
	"exchangePricing/internal/pricing"
	"exchangePricing/internal/storage/memory"
)

const (
	factoryAddr = "0xca143ce32fe78f1f7019d7d551a6402fc5350c73"
	wbnb        = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
	busd        = "0xe9e7cea3dedca5984780bafc599bd69add087d56"
	cake        = "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"
	busdPair    = "0x58f876857a02d6762e0101bb5c46a8c1ed44dc16"
	cakePair    = "0x0ed7e52944161450477ee417de9cd3a859b14fd0"
)

type fakeTokenMeta struct {
	metas map[string]model.TokenMeta
}

func (f *fakeTokenMeta) TokenMeta(_ context.Context, token string) (model.TokenMeta, error) {
	meta, ok := f.metas[token]
	if !ok {
		return model.TokenMeta{}, fmt.Errorf("no metadata for %s", token)
	}
	return meta, nil
}

func testTokenMeta() *fakeTokenMeta {
	return &fakeTokenMeta{metas: map[string]model.TokenMeta{
		wbnb: {Address: wbnb, Decimals: 18, Symbol: "WBNB", Name: "Wrapped BNB"},
		busd: {Address: busd, Decimals: 18, Symbol: "BUSD", Name: "BUSD Token"},
	}}
}

func testPricingConfig() pricing.Config {
	return pricing.Config{
		ReferenceToken:   wbnb,
		StablePairs:      []string{busdPair},
		Whitelist:        []string{wbnb, busd},
		MinimumLiquidity: decimal.NewFromInt(1),
	}
}

func newTestHandler(t *testing.T, store *memory.Store, pairs PairLookup) *Handler {
	t.Helper()
	handler, err := NewHandler(HandlerConfig{
		Pricing:   testPricingConfig(),
		FactoryID: factoryAddr,
		Tokens:    testTokenMeta(),
		Pairs:     pairs,
	}, store, zap.NewNop())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

// wei renders whole token units as an 18-decimal raw integer string.
func wei(units int64) string {
	return decimal.NewFromInt(units).Shift(18).String()
}

func record(t *testing.T, block, logIndex uint64, address, name string, payload interface{}) model.TypedEventRecord {
	t.Helper()
	decoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return model.TypedEventRecord{
		ChainID:     56,
		BlockNumber: block,
		TxHash:      fmt.Sprintf("0xtx%d", block),
		LogIndex:    logIndex,
		Address:     address,
		EventName:   name,
		Timestamp:   1700000000 + block,
		Decoded:     decoded,
	}
}

func stablePairFlow(t *testing.T) []model.TypedEventRecord {
	t.Helper()
	return []model.TypedEventRecord{
		record(t, 100, 0, factoryAddr, model.EventPairCreated, model.PairCreatedEventData{
			Token0: busd, Token1: wbnb, Pair: busdPair, Index: "1",
		}),
		record(t, 101, 0, busdPair, model.EventSync, model.SyncEventData{
			Reserve0: wei(3000), Reserve1: wei(10),
		}),
		record(t, 102, 0, busdPair, model.EventSync, model.SyncEventData{
			Reserve0: wei(2500), Reserve1: wei(10),
		}),
		record(t, 103, 0, busdPair, model.EventSwap, model.SwapEventData{
			Sender: "0xrouter", To: "0xuser",
			Amount0In: wei(250), Amount1In: "0", Amount0Out: "0", Amount1Out: wei(1),
		}),
		record(t, 103, 1, busdPair, model.EventMint, model.MintEventData{
			Sender: "0xrouter", Amount0: wei(250), Amount1: wei(1),
		}),
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", name, got.String(), want)
	}
}
