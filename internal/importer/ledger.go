// Package importer decides, row by row, which statement transactions to
// import into a ledger and drives the ledger through the import.
package importer

import (
	"context"

	"github.com/cleared-dev/stmtimport/internal/model"
)

// Ledger is the bookkeeping backend transactions are imported into.
// Created transactions become durable only after Commit.
type Ledger interface {
	// FetchAccount looks up an account by name; ok is false if absent.
	FetchAccount(ctx context.Context, name string) (acct model.Account, ok bool, err error)
	CreateAccount(ctx context.Context, name string) (model.Account, error)
	ListTransactions(ctx context.Context, acct model.Account) ([]model.LedgerEntry, error)
	CreateTransaction(ctx context.Context, acct model.Account, txn model.NewTransaction) error
	Commit(ctx context.Context) error
}
