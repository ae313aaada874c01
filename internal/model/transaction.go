package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParsedTransaction is one statement row after normalization.
type ParsedTransaction struct {
	PostingDate time.Time
	ValueDate   time.Time // effective date of the transaction
	PostingTime string    // kept for diagnostics only
	Description string    // raw text, may span several lines
	Amount      decimal.Decimal
	Payee       string
	Row         int // 1-based statement row, header is row 1
}

// LedgerEntry is a transaction already recorded by the ledger.
type LedgerEntry struct {
	Date   time.Time
	Amount decimal.Decimal
}

// NewTransaction holds the fields sent to the ledger when creating a transaction.
type NewTransaction struct {
	Date   time.Time
	Payee  string
	Notes  string
	Amount decimal.Decimal // negative = expense, positive = income
}

// ToNew converts a parsed transaction into a ledger creation request.
// The value date is used as the transaction date and the raw description
// becomes the notes.
func (t ParsedTransaction) ToNew() NewTransaction {
	return NewTransaction{
		Date:   t.ValueDate,
		Payee:  t.Payee,
		Notes:  t.Description,
		Amount: t.Amount,
	}
}
