package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exchangePricing/internal/config"
	"exchangePricing/internal/dex"
	"exchangePricing/internal/storage"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	switch {
	case cfg.In == "":
		return fmt.Errorf("input path is required")
	case cfg.Out == "":
		return fmt.Errorf("output path is required")
	case cfg.Errors == "":
		return fmt.Errorf("errors path is required")
	}

	decoder, err := dex.NewPairDecoder(dex.DecoderConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	in, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	events, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer events.Close()

	failures, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer failures.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.Int("topic0_aliases", len(cfg.Topic0Map)),
	)

	stats, err := dex.DecodeStream(cmd.Context(), decoder, in, events, failures)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.Total),
		zap.Int("decoded", stats.Decoded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return nil
}
