package report

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/stmtimport/internal/importer"
	"github.com/cleared-dev/stmtimport/internal/model"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func txn(row int, payee, amount string) model.ParsedTransaction {
	return model.ParsedTransaction{
		ValueDate: time.Date(2024, 3, row, 0, 0, 0, 0, time.UTC),
		Payee:     payee,
		Amount:    decimal.RequireFromString(amount),
		Row:       row,
	}
}

func TestLine(t *testing.T) {
	got := Line(txn(1, "Esselunga Spa", "-45.6"))
	assert.Equal(t, "2024-03-01 | Esselunga Spa                  |     -45.60", got)

	long := Line(txn(2, "Una Ragione Sociale Molto Lunga Davvero Srl", "3388"))
	assert.Equal(t, "2024-03-02 | Una Ragione Sociale Molto Lung |    3388.00", long)

	// Amounts with more than two places are shown as parsed, not rounded.
	loneDot := Line(txn(3, "Bar", "1.234"))
	assert.Equal(t, "2024-03-03 | Bar                            |      1.234", loneDot)
}

func TestWrite_Import(t *testing.T) {
	res := &importer.Result{
		Account: model.Account{ID: "a1", Name: "Conto"},
		Decisions: []model.ImportDecision{
			{Transaction: txn(2, "Negozio", "-12.5"), Action: model.ActionImport},
			{Transaction: txn(3, "Super", "-42"), Action: model.ActionSkip, Reason: "dup"},
			{Transaction: txn(5, "Bar", "-1"), Action: model.ActionFailed, Reason: "rejected"},
		},
		Imported: 1, Skipped: 1, Failed: 1, Invalid: 1, Total: 3,
		Committed: true,
	}

	var buf bytes.Buffer
	Write(&buf, Report{Source: "march.csv", Header: []string{"Data contabile", "Importo"}, Result: res})
	out := buf.String()

	assert.Contains(t, out, "Reading CSV file: march.csv\n")
	assert.Contains(t, out, "CSV Headers: [Data contabile, Importo]\n")
	assert.Contains(t, out, "Parsed 3 transactions from CSV\n")
	assert.Contains(t, out, "Skipped 1 invalid rows\n")
	assert.Contains(t, out, "Using existing account: Conto\n")
	assert.Contains(t, out, "Imported: 2024-03-02 | Negozio")
	assert.Contains(t, out, "Skipping existing transaction: 2024-03-03 | Super")
	assert.Contains(t, out, "Error importing transaction from row 5: rejected\n")
	assert.Contains(t, out, "Committing 1 transactions...\n")
	assert.Contains(t, out, "Import completed successfully!\n")
	assert.Contains(t, out, "  Imported: 1\n  Skipped:  1\n  Failed:   1\n  Total:    3\n")
	assert.NotContains(t, out, "DRY RUN")
}

func TestWrite_NothingToImport(t *testing.T) {
	res := &importer.Result{
		Account: model.Account{ID: "new", Name: "Nuovo"},
		Created: true,
	}

	var buf bytes.Buffer
	Write(&buf, Report{Source: "x.csv", Result: res})
	out := buf.String()

	assert.Contains(t, out, "Creating new account: Nuovo\n")
	assert.Contains(t, out, "No transactions to import.\n")
	assert.NotContains(t, out, "Committing")
	assert.NotContains(t, out, "Failed:")
}

func TestWrite_Preview(t *testing.T) {
	res := &importer.Result{
		Account: model.Account{Name: "Nuovo"},
		Decisions: []model.ImportDecision{
			{Transaction: txn(2, "Negozio", "-12.5"), Action: model.ActionImport},
			{Transaction: txn(3, "Super", "-42"), Action: model.ActionSkip},
		},
		Imported: 1, Skipped: 1, Total: 2,
	}

	var buf bytes.Buffer
	Write(&buf, Report{Source: "x.csv", Result: res, Preview: true})
	out := buf.String()

	assert.Contains(t, out, "Account Nuovo does not exist and would be created\n")
	assert.Contains(t, out, "DRY RUN - Transactions that would be imported:\n")
	assert.Contains(t, out, "  2024-03-02 | Negozio")
	assert.Contains(t, out, "     -42.00 (existing)\n")
	assert.NotContains(t, out, "Committing")
	assert.NotContains(t, out, "Using existing account")
}

func TestWrite_NoResult(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, Report{Source: "x.csv", Header: []string{"a"}})
	assert.Equal(t, "Reading CSV file: x.csv\nCSV Headers: [a]\n", buf.String())
}
