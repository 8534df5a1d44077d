package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exchangePricing/internal/chain"
	"exchangePricing/internal/config"
	"exchangePricing/internal/dex"
	"exchangePricing/internal/ingest"
	"exchangePricing/internal/storage/memory"
	"exchangePricing/internal/storage/postgres"
)

func runProcess(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadProcess(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	if !common.IsHexAddress(cfg.Factory) {
		return fmt.Errorf("invalid factory address: %q", cfg.Factory)
	}

	ctx := cmd.Context()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	seed, err := store.LoadSeed(ctx, cfg.Factory)
	if err != nil {
		return err
	}
	snapshot := memory.NewStore(seed)

	handlerCfg := ingest.HandlerConfig{
		Pricing:   cfg.Pricing,
		FactoryID: cfg.Factory,
	}
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		factory, err := chain.NewFactory(chain.FactoryConfig{
			Address: common.HexToAddress(cfg.Factory),
			Retry:   chain.RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBackoff},
		}, chainClient)
		if err != nil {
			return err
		}
		handlerCfg.Pairs = factory
		handlerCfg.Tokens = dex.NewTokenMetaService(chainClient, nil, logger)
	} else {
		logger.Warn("no rpc configured: pairs with unseen tokens will be skipped")
	}

	handler, err := ingest.NewHandler(handlerCfg, snapshot, logger)
	if err != nil {
		return err
	}

	var stateStore ingest.StateStore
	if cfg.StateFile != "" {
		stateStore = &ingest.FileStateStore{Path: cfg.StateFile}
	} else {
		stateStore = &ingest.DBStateStore{Backend: store, Name: "process:" + cfg.Factory}
	}

	processor := ingest.NewProcessor(ingest.ProcessorConfig{
		BatchSize:  cfg.BatchSize,
		FromBlock:  cfg.FromBlock,
		StateStore: stateStore,
	}, handler, snapshot, store, logger)

	logger.Info("process start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("factory", cfg.Factory),
		zap.String("reference_token", cfg.Pricing.ReferenceToken),
		zap.Int("stable_pairs", len(cfg.Pricing.StablePairs)),
		zap.Int("whitelist", len(cfg.Pricing.Whitelist)),
		zap.String("minimum_liquidity", cfg.Pricing.MinimumLiquidity.String()),
		zap.Int("tokens", len(seed.Tokens)),
		zap.Int("pairs", len(seed.Pairs)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("from_block", cfg.FromBlock),
	)

	return processor.Run(ctx, cfg.Input)
}
