package payee

import (
	"strings"
)

// Description markers used by the bank.
const (
	markerPOS         = "PAGAMENTO"
	markerTransfer    = "BONIFICO SEPA"
	markerDirectDebit = "ADDEBITO SEPA DD"
	markerPayPal      = "PAYPAL"
	markerSumUp       = "SUMUP"
	markerGoogle      = "GOOGLE*"
	markerCard        = "CARTA"
	markerCardEUR     = "DI EUR"
)

const maxFallbackLen = 50

// posRules are tried in order on each point-of-sale line.
var posRules = firstOf(
	PayPal,
	SumUp,
	Google,
	Card,
)

// POS extracts the merchant of a point-of-sale payment.
func POS(lines []string) (string, bool) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, markerPOS) {
			continue
		}
		if name, ok := posRules(line); ok {
			return name, true
		}
	}
	return "", false
}

// PayPal extracts "PAYPAL *MERCHANT NAME CITY" as "MERCHANT NAME".
func PayPal(line string) (string, bool) {
	return afterProcessor(line, markerPayPal)
}

// SumUp extracts "SUMUP *MERCHANT NAME CITY" as "MERCHANT NAME".
func SumUp(line string) (string, bool) {
	return afterProcessor(line, markerSumUp)
}

// afterProcessor returns the tokens following the token that contains
// marker, minus the final token (the city).
func afterProcessor(line, marker string) (string, bool) {
	if !strings.Contains(strings.ToUpper(line), marker) {
		return "", false
	}
	parts := strings.Fields(line)
	for i, part := range parts {
		if !strings.Contains(strings.ToUpper(part), marker) || i+1 >= len(parts) {
			continue
		}
		parts[i+1] = strings.Trim(parts[i+1], "*")
		if i+1 < len(parts)-1 {
			if name := strings.Join(parts[i+1:len(parts)-1], " "); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// Google extracts the service from a "GOOGLE*SERVICE" token.
func Google(line string) (string, bool) {
	if !strings.Contains(strings.ToUpper(line), markerGoogle) {
		return "", false
	}
	for _, part := range strings.Fields(line) {
		if !strings.Contains(strings.ToUpper(part), markerGoogle) {
			continue
		}
		_, name, _ := strings.Cut(part, "*")
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// Card extracts the merchant of a card payment:
// "... CARTA 1234 DI EUR 12,50 MERCHANT NAME CITY" -> "MERCHANT NAME".
func Card(line string) (string, bool) {
	if !strings.Contains(line, markerCard) || !strings.Contains(line, markerCardEUR) {
		return "", false
	}
	parts := strings.Fields(line)
	eur := -1
	for i, part := range parts {
		if part == "EUR" {
			eur = i
			break
		}
	}
	// The token after EUR is the amount; the last token is the city.
	start := eur + 2
	if eur <= 0 || start >= len(parts)-1 {
		return "", false
	}
	return strings.Join(parts[start:len(parts)-1], " "), true
}

// Transfer extracts the counterparty of a SEPA credit transfer from its
// "DA:" (sender) or "A:" (beneficiary) line.
func Transfer(lines []string) (string, bool) {
	if !some(lines, markerTransfer) {
		return "", false
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "BONIFICO") {
			continue
		}

		var entity string
		switch {
		case strings.Contains(line, "DA:"):
			entity = line[strings.LastIndex(line, "DA:")+len("DA:"):]
		case strings.Contains(line, "A:"):
			entity = line[strings.LastIndex(line, "A:")+len("A:"):]
		default:
			continue
		}
		entity, _, _ = strings.Cut(strings.TrimSpace(entity), "PER:")
		entity = strings.TrimSpace(entity)

		if strings.Contains(entity, "Directa") {
			return "Directa", true
		}
		if fields := strings.Fields(entity); len(fields) > 0 {
			return fields[0], true
		}
	}
	return "", false
}

// DirectDebit extracts the creditor of a SEPA direct debit, the last
// "/"-separated segment of its mandate line.
func DirectDebit(lines []string) (string, bool) {
	if !some(lines, markerDirectDebit) {
		return "", false
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "/") || strings.HasPrefix(line, "ADDEBITO") {
			continue
		}
		company := strings.TrimSpace(line[strings.LastIndex(line, "/")+1:])
		if strings.Contains(company, "Satispay") {
			return "Satispay", true
		}
		if company != "" {
			return company, true
		}
	}
	return "", false
}

var fallbackSkipPrefixes = []string{"PAGAMENTO", "BONIFICO", "ADDEBITO", "COMMISSIONI", "CANONE"}

// Fallback returns the first line that is not a transaction-kind header,
// else a generic label for the kind, else the first word.
func Fallback(lines []string) (string, bool) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || hasAnyPrefix(line, fallbackSkipPrefixes) {
			continue
		}
		return truncate(line, maxFallbackLen), true
	}

	description := strings.Join(lines, "\n")
	switch {
	case strings.Contains(description, "PAGAMENTO"):
		return "POS Payment", true
	case strings.Contains(description, "BONIFICO"):
		return "Bank Transfer", true
	case strings.Contains(description, "ADDEBITO"):
		return "Direct Debit", true
	case strings.Contains(description, "COMMISSIONI"), strings.Contains(description, "CANONE"):
		return "Bank Fees", true
	}
	if fields := strings.Fields(description); len(fields) > 0 {
		return fields[0], true
	}
	return "", false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
