// Package reconcile matches parsed transactions against a ledger snapshot.
//
// Matching is by value date and amount only. Two distinct transactions on
// the same day for the same amount cannot be told apart, so the second one
// is reported as a duplicate of the first.
package reconcile

import (
	"time"

	"github.com/cleared-dev/stmtimport/internal/model"
)

// FindDuplicate returns the index of the first snapshot entry with the same
// date and amount as txn, or -1. The scan is linear in the snapshot size;
// statement files are small enough that no index is kept.
func FindDuplicate(txn model.ParsedTransaction, snapshot []model.LedgerEntry) int {
	for i, entry := range snapshot {
		if sameDay(entry.Date, txn.ValueDate) && entry.Amount.Equal(txn.Amount) {
			return i
		}
	}
	return -1
}

// IsDuplicate reports whether snapshot already holds txn.
func IsDuplicate(txn model.ParsedTransaction, snapshot []model.LedgerEntry) bool {
	return FindDuplicate(txn, snapshot) >= 0
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
