package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func parseDecimals(values []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("parse numeric %q: %w", v, err)
		}
		out[i] = d
	}
	return out, nil
}

func parseNullDecimal(value *string) (decimal.NullDecimal, error) {
	if value == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*value)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse numeric %q: %w", *value, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// nullDecimalText maps an unpriced value to SQL NULL.
func nullDecimalText(value decimal.NullDecimal) *string {
	if !value.Valid {
		return nil
	}
	s := value.Decimal.String()
	return &s
}
