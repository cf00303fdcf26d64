package utils

import (
	"github.com/shopspring/decimal"
)

// Monetary amounts are stored as int64 minor units (cents). Decimal is only
// used at the rendering edge, so no float drift can reach a document.

// FormatMinor renders minor units as a major-unit string, e.g. 2550 -> "25.50".
func FormatMinor(amount int64) string {
	return decimal.NewFromInt(amount).Shift(-2).StringFixed(2)
}
