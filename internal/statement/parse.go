package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/stmtimport/internal/model"
	"github.com/cleared-dev/stmtimport/internal/normalize"
	"github.com/cleared-dev/stmtimport/internal/payee"
)

// ErrTooFewFields is returned for rows with fewer than MinFields fields.
var ErrTooFewFields = errors.New("too few fields")

// MinFields is the number of columns a data row must have.
const MinFields = 5

const (
	colPostingDate = 0
	colPostingTime = 1
	colValueDate   = 2
	colDesc        = 3
	colAmount      = 4
)

// RowError reports a row that could not be parsed.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParseRow normalizes one data row and infers its payee.
// Errors are *RowError wrapping ErrTooFewFields, normalize.ErrInvalidDate
// or normalize.ErrInvalidAmount.
func ParseRow(row RawRow) (model.ParsedTransaction, error) {
	if len(row.Fields) < MinFields {
		return model.ParsedTransaction{}, &RowError{
			Row: row.Number,
			Err: fmt.Errorf("%w: expected at least %d, got %d", ErrTooFewFields, MinFields, len(row.Fields)),
		}
	}

	field := func(i int) string { return strings.TrimSpace(row.Fields[i]) }

	posting, err := normalize.ParseDate(field(colPostingDate))
	if err != nil {
		return model.ParsedTransaction{}, &RowError{Row: row.Number, Err: fmt.Errorf("posting date: %w", err)}
	}
	value, err := normalize.ParseDate(field(colValueDate))
	if err != nil {
		return model.ParsedTransaction{}, &RowError{Row: row.Number, Err: fmt.Errorf("value date: %w", err)}
	}
	amount, err := normalize.ParseAmount(field(colAmount))
	if err != nil {
		return model.ParsedTransaction{}, &RowError{Row: row.Number, Err: err}
	}

	desc := field(colDesc)
	return model.ParsedTransaction{
		PostingDate: posting,
		ValueDate:   value,
		PostingTime: field(colPostingTime),
		Description: desc,
		Amount:      amount,
		Payee:       payee.Infer(desc),
		Row:         row.Number,
	}, nil
}

// ParseRows parses every row in order. Rows that fail are reported in
// the returned errors and left out of the transactions.
func ParseRows(rows []RawRow) ([]model.ParsedTransaction, []*RowError) {
	var (
		txns []model.ParsedTransaction
		errs []*RowError
	)
	for _, row := range rows {
		txn, err := ParseRow(row)
		if err != nil {
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				errs = append(errs, rowErr)
			} else {
				errs = append(errs, &RowError{Row: row.Number, Err: err})
			}
			continue
		}
		txns = append(txns, txn)
	}
	return txns, errs
}
