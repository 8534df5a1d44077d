package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"exchangePricing/internal/pricing"
)

// ProcessConfig holds configuration for the process command.
type ProcessConfig struct {
	RPCURL       string
	Input        string
	PGDSN        string
	Factory      string
	BatchSize    int
	StateFile    string
	FromBlock    uint64
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	Pricing      pricing.Config
}

// LoadProcess merges config file, environment variables, and flags into ProcessConfig.
func LoadProcess(cfgFile string, flags *pflag.FlagSet) (ProcessConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"batch-size":    1000,
		"factory":       DefaultFactory,
		"max-retries":   3,
		"retry-backoff": 500 * time.Millisecond,
	})
	if err != nil {
		return ProcessConfig{}, err
	}

	pricingCfg, err := loadPricing(v)
	if err != nil {
		return ProcessConfig{}, err
	}

	return ProcessConfig{
		RPCURL:       v.GetString("rpc"),
		Input:        v.GetString("in"),
		PGDSN:        v.GetString("pg-dsn"),
		Factory:      pricing.NormalizeID(v.GetString("factory")),
		BatchSize:    v.GetInt("batch-size"),
		StateFile:    strings.TrimSpace(v.GetString("state-file")),
		FromBlock:    v.GetUint64("from-block"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
		Pricing:      pricingCfg,
	}, nil
}
