// Package normalize converts European-formatted statement fields into
// canonical values.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidDate is returned for dates that are not a valid DD/MM/YYYY.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidAmount is returned for empty or malformed amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

const dateFormat = "02/01/2006"

// time.Parse accepts one-digit days for "02", so the shape is checked first.
var dateShape = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// ParseDate parses a DD/MM/YYYY date. The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if !dateShape.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q, expected DD/MM/YYYY", ErrInvalidDate, s)
	}
	d, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return d, nil
}

// ParseAmount parses an amount using European separators.
//
//	"3.388,00" -> 3388.00 (dot = thousands, comma = decimal)
//	"1234,56"  -> 1234.56
//	"150", "12.5" -> unchanged
//
// A string with only dots is passed through as-is, so "1.234" is read as
// 1.234 and not 1234.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	cleaned := s
	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}
