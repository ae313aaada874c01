package journal

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/stmtimport/internal/model"
)

// AccountsHeader is the CSV header for accounts.csv.
const AccountsHeader = "account_id,name"

const (
	numAccountFields = 2
	colAccountID     = 0
	colAccountName   = 1
)

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numAccountFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		if rec[colAccountID] == "" || rec[colAccountName] == "" {
			return nil, fmt.Errorf("row %d: account_id and name are required", i+2)
		}
		accounts = append(accounts, model.Account{ID: rec[colAccountID], Name: rec[colAccountName]})
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"account_id", "name"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write([]string{acct.ID, acct.Name}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
