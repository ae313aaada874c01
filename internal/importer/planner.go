package importer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/stmtimport/internal/model"
	"github.com/cleared-dev/stmtimport/internal/statement"
)

// Options controls an import run.
type Options struct {
	Account      string
	SkipExisting bool
	Preview      bool // decide only, never write to the ledger
}

// Result summarizes an import run.
type Result struct {
	Account   model.Account
	Created   bool // account did not exist and was created
	Decisions []model.ImportDecision
	Imported  int // created in the ledger (or would be, in preview)
	Skipped   int // duplicates of existing ledger entries
	Failed    int // rejected by the ledger
	Invalid   int // rows that could not be parsed
	Total     int // parsed transactions
	Committed bool
}

// Planner runs imports against a ledger.
type Planner struct {
	ledger Ledger
	log    zerolog.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(ledger Ledger, log zerolog.Logger) *Planner {
	return &Planner{ledger: ledger, log: log}
}

// Run parses rows, plans them against the account's current transactions
// and, unless previewing, creates the planned transactions and commits.
//
// Unparseable rows and transactions the ledger rejects are logged and
// dropped; the run goes on. Commit happens once, only if at least one
// transaction was created. A commit error is returned together with the
// result.
func (p *Planner) Run(ctx context.Context, rows []statement.RawRow, opts Options) (*Result, error) {
	txns, rowErrs := statement.ParseRows(rows)
	for _, e := range rowErrs {
		p.log.Warn().Int("row", e.Row).Err(e.Err).Msg("skipping row")
	}

	res := &Result{Invalid: len(rowErrs), Total: len(txns)}

	acct, ok, err := p.ledger.FetchAccount(ctx, opts.Account)
	if err != nil {
		return nil, fmt.Errorf("fetching account %q: %w", opts.Account, err)
	}

	var snapshot []model.LedgerEntry
	switch {
	case ok:
		p.log.Info().Str("account", acct.Name).Msg("using existing account")
		snapshot, err = p.ledger.ListTransactions(ctx, acct)
		if err != nil {
			return nil, fmt.Errorf("listing transactions of %q: %w", acct.Name, err)
		}
	case opts.Preview:
		acct = model.Account{Name: opts.Account}
		p.log.Info().Str("account", opts.Account).Msg("account does not exist yet")
	default:
		acct, err = p.ledger.CreateAccount(ctx, opts.Account)
		if err != nil {
			return nil, fmt.Errorf("creating account %q: %w", opts.Account, err)
		}
		res.Created = true
		p.log.Info().Str("account", acct.Name).Msg("created account")
	}
	res.Account = acct
	p.log.Debug().Int("entries", len(snapshot)).Msg("loaded ledger snapshot")

	res.Decisions = Plan(txns, snapshot, opts.SkipExisting)

	for i := range res.Decisions {
		d := &res.Decisions[i]
		txn := d.Transaction
		entry := p.log.With().
			Int("row", txn.Row).
			Str("date", txn.ValueDate.Format("2006-01-02")).
			Str("amount", model.FormatAmount(txn.Amount)).
			Str("payee", txn.Payee).
			Logger()

		if d.Action == model.ActionSkip {
			res.Skipped++
			entry.Info().Str("reason", d.Reason).Msg("skipping existing transaction")
			continue
		}
		if opts.Preview {
			res.Imported++
			continue
		}
		if err := p.ledger.CreateTransaction(ctx, acct, txn.ToNew()); err != nil {
			d.Action = model.ActionFailed
			d.Reason = err.Error()
			res.Failed++
			entry.Error().Err(err).Msg("importing transaction")
			continue
		}
		res.Imported++
		entry.Debug().Msg("imported")
	}

	if opts.Preview || res.Imported == 0 {
		return res, nil
	}

	p.log.Info().Int("count", res.Imported).Msg("committing transactions")
	if err := p.ledger.Commit(ctx); err != nil {
		return res, fmt.Errorf("committing %d transactions: %w", res.Imported, err)
	}
	res.Committed = true
	return res, nil
}
