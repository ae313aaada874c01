package importer

import (
	"fmt"

	"github.com/cleared-dev/stmtimport/internal/model"
	"github.com/cleared-dev/stmtimport/internal/reconcile"
)

// Plan decides the action for each transaction, in order. With
// skipExisting, a transaction matching an entry of snapshot is skipped.
// snapshot is the ledger content before the run; transactions planned
// here are never added to it.
func Plan(txns []model.ParsedTransaction, snapshot []model.LedgerEntry, skipExisting bool) []model.ImportDecision {
	decisions := make([]model.ImportDecision, 0, len(txns))
	for _, txn := range txns {
		d := model.ImportDecision{Transaction: txn, Action: model.ActionImport}
		if skipExisting {
			if i := reconcile.FindDuplicate(txn, snapshot); i >= 0 {
				d.Action = model.ActionSkip
				d.Reason = fmt.Sprintf("ledger already has %s %s", snapshot[i].Date.Format("2006-01-02"), model.FormatAmount(snapshot[i].Amount))
			}
		}
		decisions = append(decisions, d)
	}
	return decisions
}
