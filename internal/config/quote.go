package config

import (
	"github.com/spf13/pflag"

	"exchangePricing/internal/pricing"
)

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	PGDSN    string
	Factory  string
	Tokens   []string
	LogLevel string
	Pricing  pricing.Config
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"factory": DefaultFactory,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	pricingCfg, err := loadPricing(v)
	if err != nil {
		return QuoteConfig{}, err
	}

	tokens := getStringSlice(v, "token")
	for i, token := range tokens {
		tokens[i] = pricing.NormalizeID(token)
	}

	return QuoteConfig{
		PGDSN:    v.GetString("pg-dsn"),
		Factory:  pricing.NormalizeID(v.GetString("factory")),
		Tokens:   tokens,
		LogLevel: v.GetString("log-level"),
		Pricing:  pricingCfg,
	}, nil
}
