package main

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exchangePricing/internal/config"
	"exchangePricing/internal/pricing"
	"exchangePricing/internal/storage/memory"
	"exchangePricing/internal/storage/postgres"
)

type quoteLine struct {
	Token            string          `json:"token"`
	Symbol           string          `json:"symbol,omitempty"`
	Known            bool            `json:"known"`
	DerivedReference decimal.Decimal `json:"derived_reference"`
	PriceUSD         decimal.Decimal `json:"price_usd"`
}

type quoteSummary struct {
	ReferenceToken    string          `json:"reference_token"`
	ReferencePriceUSD decimal.Decimal `json:"reference_price_usd"`
	StoredPriceUSD    decimal.Decimal `json:"stored_price_usd"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx := cmd.Context()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	seed, err := store.LoadSeed(ctx, cfg.Factory)
	if err != nil {
		return err
	}
	snapshot := memory.NewStore(seed)

	pricer, err := pricing.NewPricer(cfg.Pricing, snapshot, logger)
	if err != nil {
		return err
	}

	logger.Debug("quote snapshot loaded",
		zap.Int("tokens", len(seed.Tokens)),
		zap.Int("pairs", len(seed.Pairs)),
	)

	out := json.NewEncoder(cmd.OutOrStdout())
	referencePrice := pricer.ReferencePriceUSD()
	if err := out.Encode(quoteSummary{
		ReferenceToken:    pricer.Config().ReferenceToken,
		ReferencePriceUSD: referencePrice,
		StoredPriceUSD:    snapshot.Bundle().ReferencePriceUSD,
	}); err != nil {
		return err
	}

	for _, id := range cfg.Tokens {
		token, ok := snapshot.LoadToken(id)
		if !ok {
			token.ID = id
		}
		derived := pricer.TokenPriceInReference(token)
		if err := out.Encode(quoteLine{
			Token:            id,
			Symbol:           token.Symbol,
			Known:            ok,
			DerivedReference: derived,
			PriceUSD:         derived.Mul(referencePrice),
		}); err != nil {
			return err
		}
	}
	return nil
}
