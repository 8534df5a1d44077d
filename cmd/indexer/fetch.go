package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exchangePricing/internal/chain"
	"exchangePricing/internal/config"
	"exchangePricing/internal/fetch"
	"exchangePricing/internal/storage"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFetch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Factory) {
		return fmt.Errorf("invalid factory address: %q", cfg.Factory)
	}
	pairs, err := fetch.ParseAddresses(cfg.Pairs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	writer, err := storage.NewJSONLWriter(cfg.Out, true)
	if err != nil {
		return err
	}
	defer writer.Close()

	logger.Info("fetch start",
		zap.String("factory", cfg.Factory),
		zap.Int("pairs", len(pairs)),
		zap.Uint64("from_block", cfg.FromBlock),
		zap.Uint64("to_block", cfg.ToBlock),
		zap.String("out", cfg.Out),
	)

	fetcher, err := fetch.NewFetcher(fetch.Config{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		Factory:           common.HexToAddress(cfg.Factory),
		Pairs:             pairs,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		Retry:             chain.RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBackoff},
	}, client, writer, logger)
	if err != nil {
		return err
	}
	return fetcher.Run(ctx)
}
