package model

import "github.com/shopspring/decimal"

// FormatAmount renders d with at least two decimal places and never rounds:
// "-45.6" becomes "-45.60", "1.234" stays "1.234".
func FormatAmount(d decimal.Decimal) string {
	places := max(2, -d.Exponent())
	return d.StringFixed(places)
}
