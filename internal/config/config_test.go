package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"

	"exchangePricing/internal/pricing"
)

func TestLoadProcessDefaults(t *testing.T) {
	cfg, err := LoadProcess("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BatchSize != 1000 || cfg.Factory != DefaultFactory || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	want := pricing.DefaultConfig().Normalized()
	if cfg.Pricing.ReferenceToken != want.ReferenceToken {
		t.Fatalf("reference token = %s", cfg.Pricing.ReferenceToken)
	}
	if !reflect.DeepEqual(cfg.Pricing.Whitelist, want.Whitelist) {
		t.Fatalf("whitelist = %v", cfg.Pricing.Whitelist)
	}
	if !cfg.Pricing.MinimumLiquidity.Equal(want.MinimumLiquidity) {
		t.Fatalf("minimum liquidity = %s", cfg.Pricing.MinimumLiquidity)
	}
}

func TestLoadProcessFlagsAndEnv(t *testing.T) {
	t.Setenv("INDEXER_MINIMUM_LIQUIDITY", "2.5")
	t.Setenv("INDEXER_PG_DSN", "postgres://indexer@localhost/pricing")

	flags := pflag.NewFlagSet("process", pflag.ContinueOnError)
	flags.StringSlice("whitelist", nil, "")
	flags.String("reference-token", "", "")
	flags.Uint64("from-block", 0, "")
	if err := flags.Parse([]string{
		"--whitelist", "0xBBBB,0xaaaa",
		"--reference-token", "0xAAAA",
		"--from-block", "42",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadProcess("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PGDSN != "postgres://indexer@localhost/pricing" {
		t.Fatalf("pg dsn = %q", cfg.PGDSN)
	}
	if cfg.FromBlock != 42 {
		t.Fatalf("from block = %d", cfg.FromBlock)
	}
	if cfg.Pricing.ReferenceToken != "0xaaaa" {
		t.Fatalf("reference token = %s", cfg.Pricing.ReferenceToken)
	}
	if !reflect.DeepEqual(cfg.Pricing.Whitelist, []string{"0xbbbb", "0xaaaa"}) {
		t.Fatalf("whitelist order not kept: %v", cfg.Pricing.Whitelist)
	}
	if cfg.Pricing.MinimumLiquidity.String() != "2.5" {
		t.Fatalf("minimum liquidity = %s", cfg.Pricing.MinimumLiquidity)
	}
}

func TestLoadProcessRejectsBadPricing(t *testing.T) {
	t.Setenv("INDEXER_MINIMUM_LIQUIDITY", "ten")
	if _, err := LoadProcess("", nil); err == nil {
		t.Fatalf("expected parse error")
	}

	t.Setenv("INDEXER_MINIMUM_LIQUIDITY", "-1")
	if _, err := LoadProcess("", nil); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadQuoteFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "pg-dsn: postgres://quote\ntoken:\n  - \"0xAbC\"\n  - \"0xdef\"\nstable-pairs: \"0x01,0x02\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadQuote(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PGDSN != "postgres://quote" {
		t.Fatalf("pg dsn = %q", cfg.PGDSN)
	}
	if !reflect.DeepEqual(cfg.Tokens, []string{"0xabc", "0xdef"}) {
		t.Fatalf("tokens = %v", cfg.Tokens)
	}
	if !reflect.DeepEqual(cfg.Pricing.StablePairs, []string{"0x01", "0x02"}) {
		t.Fatalf("stable pairs = %v", cfg.Pricing.StablePairs)
	}
}

func TestLoadDecodeTopicMap(t *testing.T) {
	t.Setenv("INDEXER_TOPIC0_MAP", "0xabc=Sync, 0xdef = swap ,broken")
	cfg, err := LoadDecode("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[string]string{"0xabc": "Sync", "0xdef": "swap"}
	if !reflect.DeepEqual(cfg.Topic0Map, want) {
		t.Fatalf("topic map = %v", cfg.Topic0Map)
	}
	if cfg.Out != "./data/typed_events.jsonl" {
		t.Fatalf("out default = %s", cfg.Out)
	}
}

func TestLoadFetch(t *testing.T) {
	t.Setenv("INDEXER_RPC", "https://bsc-dataseed.binance.org")

	flags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	flags.StringSlice("pairs", nil, "")
	flags.Uint64("to-block", 0, "")
	flags.Bool("checkpoint-enabled", true, "")
	if err := flags.Parse([]string{
		"--pairs", "0x58f876857a02d6762e0101bb5c46a8c1ed44dc16,0x0ed7e52944161450477ee417de9cd3a859b14fd0",
		"--to-block", "500",
		"--checkpoint-enabled=false",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadFetch("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "https://bsc-dataseed.binance.org" {
		t.Fatalf("rpc = %q", cfg.RPCURL)
	}
	if cfg.ToBlock != 500 || cfg.BatchSize != 2000 || cfg.Factory != DefaultFactory {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.CheckpointEnabled {
		t.Fatalf("checkpoint should be disabled")
	}
	want := []string{"0x58f876857a02d6762e0101bb5c46a8c1ed44dc16", "0x0ed7e52944161450477ee417de9cd3a859b14fd0"}
	if !reflect.DeepEqual(cfg.Pairs, want) {
		t.Fatalf("pairs = %v", cfg.Pairs)
	}
}

func TestDefaultsTargetTheSameNetwork(t *testing.T) {
	// PancakeSwap V2 on BNB Chain mainnet: factory, WBNB and its BUSD/WBNB pair.
	const (
		mainnetFactory  = "0xca143ce32fe78f1f7019d7d551a6402fc5350c73"
		mainnetWBNB     = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
		mainnetBUSDPair = "0x58f876857a02d6762e0101bb5c46a8c1ed44dc16"
	)

	cfg, err := LoadProcess("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Factory != mainnetFactory {
		t.Fatalf("factory = %s", cfg.Factory)
	}
	if cfg.Pricing.ReferenceToken != mainnetWBNB {
		t.Fatalf("reference token = %s", cfg.Pricing.ReferenceToken)
	}
	if len(cfg.Pricing.Whitelist) == 0 || cfg.Pricing.Whitelist[0] != mainnetWBNB {
		t.Fatalf("whitelist = %v", cfg.Pricing.Whitelist)
	}
	found := false
	for _, pair := range cfg.Pricing.StablePairs {
		found = found || pair == mainnetBUSDPair
	}
	if !found {
		t.Fatalf("stable pairs = %v", cfg.Pricing.StablePairs)
	}
}
