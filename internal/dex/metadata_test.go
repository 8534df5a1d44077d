package dex

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type erc20Stub struct {
	decimals     uint8
	symbol       string
	bytes32Name  string
	failDecimals bool
	calls        int
}

func (s *erc20Stub) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.calls++
	stringABI, err := erc20StringABI.get()
	if err != nil {
		return nil, err
	}
	bytes32ABI, err := erc20Bytes32ABI.get()
	if err != nil {
		return nil, err
	}
	selector := msg.Data[:4]
	switch {
	case bytes.Equal(selector, stringABI.Methods["decimals"].ID):
		if s.failDecimals {
			return nil, errors.New("execution reverted")
		}
		return stringABI.Methods["decimals"].Outputs.Pack(s.decimals)
	case bytes.Equal(selector, stringABI.Methods["symbol"].ID):
		return stringABI.Methods["symbol"].Outputs.Pack(s.symbol)
	case bytes.Equal(selector, stringABI.Methods["name"].ID):
		// bytes32 tokens return a fixed word that fails string decoding.
		var word [32]byte
		copy(word[:], s.bytes32Name)
		return bytes32ABI.Methods["name"].Outputs.Pack(word)
	}
	return nil, errors.New("unknown selector")
}

func TestTokenMetaServiceFetchAndCache(t *testing.T) {
	stub := &erc20Stub{decimals: 18, symbol: "CAKE", bytes32Name: "Maker"}
	service := NewTokenMetaService(stub, nil, zap.NewNop())
	token := "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"

	meta, err := service.TokenMeta(context.Background(), token)
	if err != nil {
		t.Fatalf("token meta: %v", err)
	}
	if meta.Decimals != 18 || meta.Symbol != "CAKE" || meta.Name != "Maker" {
		t.Fatalf("meta mismatch: %+v", meta)
	}
	if meta.Address != "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82" {
		t.Fatalf("address not lowercased: %s", meta.Address)
	}

	calls := stub.calls
	if _, err := service.TokenMeta(context.Background(), token); err != nil {
		t.Fatalf("cached token meta: %v", err)
	}
	if stub.calls != calls {
		t.Fatalf("expected cached lookup, calls %d -> %d", calls, stub.calls)
	}
}

func TestTokenMetaServiceDecimalsRequired(t *testing.T) {
	stub := &erc20Stub{failDecimals: true}
	service := NewTokenMetaService(stub, nil, zap.NewNop())
	token := common.HexToAddress("0x1111111111111111111111111111111111111111").Hex()

	if _, err := service.TokenMeta(context.Background(), token); err == nil {
		t.Fatalf("expected error when decimals call fails")
	}
	if _, ok := service.cache.Get(common.HexToAddress(token)); ok {
		t.Fatalf("failed lookup should not be cached")
	}
	if _, err := service.TokenMeta(context.Background(), "not-an-address"); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}
