// Package report prints the console summary of an import run.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/cleared-dev/stmtimport/internal/importer"
	"github.com/cleared-dev/stmtimport/internal/model"
)

const payeeWidth = 30

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// Report is what gets printed for one run.
type Report struct {
	Source  string
	Header  []string
	Result  *importer.Result
	Preview bool
}

// Write prints r to w.
func Write(w io.Writer, r Report) {
	fmt.Fprintf(w, "Reading CSV file: %s\n", r.Source)
	fmt.Fprintf(w, "CSV Headers: [%s]\n", strings.Join(r.Header, ", "))

	res := r.Result
	if res == nil {
		return
	}
	fmt.Fprintf(w, "Parsed %d transactions from CSV\n", res.Total)
	if res.Invalid > 0 {
		yellow.Fprintf(w, "Skipped %d invalid rows\n", res.Invalid)
	}

	if r.Preview {
		writePreview(w, res)
	} else {
		writeImport(w, res)
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Imported: %d\n", res.Imported)
	fmt.Fprintf(w, "  Skipped:  %d\n", res.Skipped)
	if res.Failed > 0 {
		red.Fprintf(w, "  Failed:   %d\n", res.Failed)
	}
	fmt.Fprintf(w, "  Total:    %d\n", res.Total)
}

func writePreview(w io.Writer, res *importer.Result) {
	if res.Account.ID == "" {
		fmt.Fprintf(w, "Account %s does not exist and would be created\n", res.Account.Name)
	}
	fmt.Fprintln(w)
	bold.Fprintln(w, "DRY RUN - Transactions that would be imported:")
	for _, d := range res.Decisions {
		if d.Action == model.ActionSkip {
			yellow.Fprintf(w, "  %s (existing)\n", Line(d.Transaction))
			continue
		}
		fmt.Fprintf(w, "  %s\n", Line(d.Transaction))
	}
}

func writeImport(w io.Writer, res *importer.Result) {
	if res.Created {
		fmt.Fprintf(w, "Creating new account: %s\n", res.Account.Name)
	} else {
		fmt.Fprintf(w, "Using existing account: %s\n", res.Account.Name)
	}

	for _, d := range res.Decisions {
		switch d.Action {
		case model.ActionSkip:
			yellow.Fprintf(w, "Skipping existing transaction: %s\n", Line(d.Transaction))
		case model.ActionFailed:
			red.Fprintf(w, "Error importing transaction from row %d: %s\n", d.Transaction.Row, d.Reason)
		default:
			green.Fprintf(w, "Imported: %s\n", Line(d.Transaction))
		}
	}

	if res.Imported == 0 {
		fmt.Fprintln(w, "No transactions to import.")
		return
	}
	fmt.Fprintf(w, "\nCommitting %d transactions...\n", res.Imported)
	if res.Committed {
		green.Fprintln(w, "Import completed successfully!")
	}
}

// Line formats a transaction as "date | payee | amount" with the payee cut
// and padded to 30 characters and the amount right-aligned in 10.
func Line(t model.ParsedTransaction) string {
	return fmt.Sprintf("%s | %-*s | %10s", t.ValueDate.Format("2006-01-02"), payeeWidth, truncate(t.Payee, payeeWidth), model.FormatAmount(t.Amount))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
