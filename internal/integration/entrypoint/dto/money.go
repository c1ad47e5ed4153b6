// Package dto defines data transfer objects for API requests and responses.
package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/care-plan/backend/internal/domain/entity"
)

// ParseMoney converts a boundary decimal string ("120.00") into internal
// minor units. Amounts travel as strings so client-side floats never
// leak rounding error into the ledger.
func ParseMoney(raw string) (entity.Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return entity.MoneyFromDecimal(d), nil
}

// FormatMoney renders internal minor units as a two-decimal string.
func FormatMoney(m entity.Money) string {
	return m.Decimal().StringFixed(2)
}

// FormatMoneyPtr renders an optional amount, or nil when unset.
func FormatMoneyPtr(m *entity.Money) *string {
	if m == nil {
		return nil
	}
	s := FormatMoney(*m)
	return &s
}
