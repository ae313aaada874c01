// Package payee infers a display payee from a bank statement description.
//
// Descriptions are free text over one or more lines. Extractors run in a
// fixed priority order and the first one that finds a name wins, so a
// description carrying several markers is classified by the highest
// priority extractor only:
//
//  1. card payments at a point of sale (PAGAMENTO ...)
//  2. SEPA credit transfers (BONIFICO SEPA ...)
//  3. SEPA direct debits (ADDEBITO SEPA DD ...)
//  4. a fallback on the first plain line or the transaction kind
package payee

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unknown is returned when no extractor finds a name.
const Unknown = "Unknown"

// Extractor looks for a payee in the lines of a description.
// ok is false when the extractor does not apply.
type Extractor func(lines []string) (name string, ok bool)

// firstOf combines fns into one function returning the first result with
// ok set. Later functions are not called once one matches.
func firstOf[T any](fns ...func(T) (string, bool)) func(T) (string, bool) {
	return func(in T) (string, bool) {
		for _, fn := range fns {
			if name, ok := fn(in); ok {
				return name, true
			}
		}
		return "", false
	}
}

// cascade is the extractor chain in priority order.
var cascade Extractor = firstOf(POS, Transfer, DirectDebit, Fallback)

// Infer returns the title-cased payee for description, or Unknown.
func Infer(description string) string {
	lines := splitLines(description)
	name, ok := cascade(lines)
	if !ok || name == "" {
		return Unknown
	}
	return cases.Title(language.Und).String(name)
}

func splitLines(description string) []string {
	return strings.Split(strings.TrimSpace(description), "\n")
}

// some reports whether any line contains marker.
func some(lines []string, marker string) bool {
	for _, line := range lines {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
