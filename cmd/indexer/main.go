package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Exchange pricing indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch factory and pair logs into raw log JSONL",
		RunE:  runFetch,
	}

	fetchCmd.Flags().String("rpc", "", "BSC RPC URL")
	fetchCmd.Flags().String("factory", "", "exchange factory address")
	fetchCmd.Flags().StringSlice("pairs", nil, "pair addresses to follow from the start (comma-separated)")
	fetchCmd.Flags().Uint64("from-block", 0, "start block")
	fetchCmd.Flags().Uint64("to-block", 0, "end block (0 means latest)")
	fetchCmd.Flags().Uint64("batch-size", 2000, "blocks per eth_getLogs range")
	fetchCmd.Flags().String("out", "./data/raw_logs.jsonl", "output raw logs JSONL (appended)")
	fetchCmd.Flags().String("checkpoint", "./data/fetch_checkpoint.json", "checkpoint file path")
	fetchCmd.Flags().Bool("checkpoint-enabled", true, "resume from and update the checkpoint")
	fetchCmd.Flags().Int("max-retries", 5, "maximum retry attempts for RPC calls")
	fetchCmd.Flags().Duration("retry-backoff", time.Second, "initial retry backoff")
	fetchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(fetchCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw pair and factory logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Apply typed events to the pricing snapshot in Postgres",
		RunE:  runProcess,
	}

	processCmd.Flags().String("in", "", "input typed events JSONL")
	processCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	processCmd.Flags().String("rpc", "", "BSC RPC URL for token metadata and factory lookups")
	processCmd.Flags().String("factory", "", "exchange factory address")
	processCmd.Flags().Int("batch-size", 1000, "pending changes that trigger a flush at the next block boundary")
	processCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	processCmd.Flags().Uint64("from-block", 0, "reprocess from this block, ignoring stored progress")
	processCmd.Flags().Int("max-retries", 3, "maximum retry attempts for factory calls")
	processCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	processCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	addPricingFlags(processCmd)

	root.AddCommand(processCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Print reference and token prices from the stored snapshot",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	quoteCmd.Flags().String("factory", "", "exchange factory address")
	quoteCmd.Flags().StringSlice("token", nil, "token addresses to price (comma-separated)")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	addPricingFlags(quoteCmd)

	root.AddCommand(quoteCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addPricingFlags(cmd *cobra.Command) {
	cmd.Flags().String("reference-token", "", "reference token address (defaults to WBNB)")
	cmd.Flags().StringSlice("stable-pairs", nil, "stablecoin/reference pair addresses")
	cmd.Flags().StringSlice("whitelist", nil, "ordered whitelist of pricing tokens")
	cmd.Flags().String("minimum-liquidity", "", "minimum pair reference reserve for pricing")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
