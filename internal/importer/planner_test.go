package importer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmtimport/internal/model"
	"github.com/cleared-dev/stmtimport/internal/statement"
)

// fakeLedger records every call and serves a fixed snapshot.
type fakeLedger struct {
	accounts map[string]model.Account
	entries  []model.LedgerEntry

	fetchErr  error
	listErr   error
	commitErr error
	createErr func(model.NewTransaction) error

	createdAccounts []string
	created         []model.NewTransaction
	listCalls       int
	commits         int
}

func newFakeLedger(entries ...model.LedgerEntry) *fakeLedger {
	return &fakeLedger{
		accounts: map[string]model.Account{"Conto": {ID: "acct-1", Name: "Conto"}},
		entries:  entries,
	}
}

func (f *fakeLedger) FetchAccount(_ context.Context, name string) (model.Account, bool, error) {
	if f.fetchErr != nil {
		return model.Account{}, false, f.fetchErr
	}
	a, ok := f.accounts[name]
	return a, ok, nil
}

func (f *fakeLedger) CreateAccount(_ context.Context, name string) (model.Account, error) {
	f.createdAccounts = append(f.createdAccounts, name)
	a := model.Account{ID: "new-" + name, Name: name}
	f.accounts[name] = a
	return a, nil
}

func (f *fakeLedger) ListTransactions(_ context.Context, _ model.Account) ([]model.LedgerEntry, error) {
	f.listCalls++
	return f.entries, f.listErr
}

func (f *fakeLedger) CreateTransaction(_ context.Context, _ model.Account, txn model.NewTransaction) error {
	if f.createErr != nil {
		if err := f.createErr(txn); err != nil {
			return err
		}
	}
	f.created = append(f.created, txn)
	return nil
}

func (f *fakeLedger) Commit(context.Context) error {
	f.commits++
	return f.commitErr
}

func (f *fakeLedger) mutations() int {
	return len(f.createdAccounts) + len(f.created) + f.commits
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(n int, fields ...string) statement.RawRow {
	return statement.RawRow{Number: n, Fields: fields}
}

func readThreeRows(t *testing.T) []statement.RawRow {
	t.Helper()
	st, err := statement.ReadFile("../../testdata/three_rows.csv")
	require.NoError(t, err)
	require.Len(t, st.Rows, 3)
	return st.Rows
}

func run(t *testing.T, l Ledger, rows []statement.RawRow, opts Options) *Result {
	t.Helper()
	res, err := NewPlanner(l, zerolog.Nop()).Run(context.Background(), rows, opts)
	require.NoError(t, err)
	return res
}

func TestRun_EndToEnd(t *testing.T) {
	l := newFakeLedger(model.LedgerEntry{Date: date(2024, 3, 2), Amount: dec("-42.00")})

	var logs bytes.Buffer
	p := NewPlanner(l, zerolog.New(&logs))
	res, err := p.Run(context.Background(), readThreeRows(t), Options{Account: "Conto", SkipExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Total, "malformed row excluded from total")
	assert.Equal(t, 1, res.Invalid)
	assert.Equal(t, 0, res.Failed)
	assert.True(t, res.Committed)
	assert.False(t, res.Created)

	require.Len(t, res.Decisions, 2)
	assert.Equal(t, model.ActionImport, res.Decisions[0].Action)
	assert.Equal(t, model.ActionSkip, res.Decisions[1].Action)
	assert.Contains(t, res.Decisions[1].Reason, "2024-03-02")

	require.Len(t, l.created, 1)
	assert.Equal(t, "Negozio Rossi Torino", l.created[0].Payee)
	assert.Equal(t, "NEGOZIO ROSSI TORINO", l.created[0].Notes)
	assert.True(t, l.created[0].Amount.Equal(dec("-12.50")))
	assert.True(t, l.created[0].Date.Equal(date(2024, 3, 1)))
	assert.Equal(t, 1, l.commits)

	assert.Contains(t, logs.String(), `"row":4`)
	assert.Contains(t, logs.String(), "too few fields")
}

func TestRun_NoSkipExisting(t *testing.T) {
	l := newFakeLedger(model.LedgerEntry{Date: date(2024, 3, 2), Amount: dec("-42.00")})
	res := run(t, l, readThreeRows(t), Options{Account: "Conto", SkipExisting: false})

	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Skipped)
	assert.Len(t, l.created, 2)
	assert.Equal(t, 1, l.commits)
}

func TestRun_AmountDiffersByOneCent(t *testing.T) {
	l := newFakeLedger(model.LedgerEntry{Date: date(2024, 3, 1), Amount: dec("42.00")})
	rows := []statement.RawRow{row(2, "01/03/2024", "", "01/03/2024", "BAR", "42,01")}

	for _, skip := range []bool{true, false} {
		l.created = nil
		res := run(t, l, rows, Options{Account: "Conto", SkipExisting: skip})
		assert.Equal(t, 1, res.Imported, "skipExisting=%v", skip)
		assert.Equal(t, 0, res.Skipped)
	}
}

func TestRun_Preview(t *testing.T) {
	l := newFakeLedger(model.LedgerEntry{Date: date(2024, 3, 2), Amount: dec("-42.00")})
	res := run(t, l, readThreeRows(t), Options{Account: "Conto", SkipExisting: true, Preview: true})

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Total)
	assert.False(t, res.Committed)
	assert.Zero(t, l.mutations(), "preview never writes to the ledger")
}

func TestRun_PreviewMissingAccount(t *testing.T) {
	l := newFakeLedger()
	res := run(t, l, readThreeRows(t), Options{Account: "Nuovo", SkipExisting: true, Preview: true})

	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, "Nuovo", res.Account.Name)
	assert.False(t, res.Created)
	assert.Zero(t, l.listCalls)
	assert.Zero(t, l.mutations())
}

func TestRun_CreatesMissingAccount(t *testing.T) {
	l := newFakeLedger()
	res := run(t, l, readThreeRows(t), Options{Account: "Nuovo", SkipExisting: true})

	assert.True(t, res.Created)
	assert.Equal(t, "new-Nuovo", res.Account.ID)
	assert.Equal(t, []string{"Nuovo"}, l.createdAccounts)
	assert.Zero(t, l.listCalls, "a new account has no transactions")
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, l.commits)
}

func TestRun_CreateFailureIsNotFatal(t *testing.T) {
	l := newFakeLedger()
	l.createErr = func(txn model.NewTransaction) error {
		if txn.Amount.Equal(dec("-12.50")) {
			return errors.New("backend rejected")
		}
		return nil
	}

	var logs bytes.Buffer
	res, err := NewPlanner(l, zerolog.New(&logs)).Run(context.Background(), readThreeRows(t), Options{Account: "Conto", SkipExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, model.ActionFailed, res.Decisions[0].Action)
	assert.Equal(t, "backend rejected", res.Decisions[0].Reason)
	assert.Equal(t, model.ActionImport, res.Decisions[1].Action)
	assert.Equal(t, 1, l.commits)
	assert.Contains(t, logs.String(), "backend rejected")
}

func TestRun_NothingImportedSkipsCommit(t *testing.T) {
	t.Run("all failed", func(t *testing.T) {
		l := newFakeLedger()
		l.createErr = func(model.NewTransaction) error { return errors.New("down") }
		res := run(t, l, readThreeRows(t), Options{Account: "Conto", SkipExisting: true})
		assert.Equal(t, 2, res.Failed)
		assert.Zero(t, l.commits)
		assert.False(t, res.Committed)
	})

	t.Run("all skipped", func(t *testing.T) {
		l := newFakeLedger(
			model.LedgerEntry{Date: date(2024, 3, 1), Amount: dec("-12.5")},
			model.LedgerEntry{Date: date(2024, 3, 2), Amount: dec("-42")},
		)
		res := run(t, l, readThreeRows(t), Options{Account: "Conto", SkipExisting: true})
		assert.Equal(t, 2, res.Skipped)
		assert.Zero(t, l.commits)
	})

	t.Run("no rows", func(t *testing.T) {
		l := newFakeLedger()
		res := run(t, l, nil, Options{Account: "Conto", SkipExisting: true})
		assert.Zero(t, res.Total)
		assert.Zero(t, l.commits)
	})
}

func TestRun_CommitErrorSurfaced(t *testing.T) {
	l := newFakeLedger()
	l.commitErr = errors.New("sync failed")

	res, err := NewPlanner(l, zerolog.Nop()).Run(context.Background(), readThreeRows(t), Options{Account: "Conto"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Imported)
	assert.False(t, res.Committed)
	assert.Equal(t, 1, l.commits, "commit is not retried")
}

func TestRun_FetchAccountError(t *testing.T) {
	l := newFakeLedger()
	l.fetchErr = errors.New("unauthorized")

	_, err := NewPlanner(l, zerolog.Nop()).Run(context.Background(), readThreeRows(t), Options{Account: "Conto"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
	assert.Zero(t, l.mutations())
}

func TestRun_ListTransactionsError(t *testing.T) {
	l := newFakeLedger()
	l.listErr = errors.New("timeout")

	_, err := NewPlanner(l, zerolog.Nop()).Run(context.Background(), readThreeRows(t), Options{Account: "Conto"})
	require.Error(t, err)
	assert.Zero(t, l.mutations())
}

func TestRun_SnapshotNotRefreshed(t *testing.T) {
	l := newFakeLedger()
	rows := []statement.RawRow{
		row(2, "01/03/2024", "", "01/03/2024", "CAFFE", "-1,20"),
		row(3, "01/03/2024", "", "01/03/2024", "CAFFE", "-1,20"),
	}
	res := run(t, l, rows, Options{Account: "Conto", SkipExisting: true})

	assert.Equal(t, 2, res.Imported, "a transaction created in this run is not a duplicate of a later one")
	assert.Equal(t, 1, l.listCalls)
}

func TestPlan(t *testing.T) {
	snapshot := []model.LedgerEntry{{Date: date(2024, 3, 1), Amount: dec("42.00")}}
	txns := []model.ParsedTransaction{
		{ValueDate: date(2024, 3, 1), Amount: dec("42"), Payee: "A", Row: 2},
		{ValueDate: date(2024, 3, 1), Amount: dec("42.01"), Payee: "B", Row: 3},
	}

	got := Plan(txns, snapshot, true)
	require.Len(t, got, 2)
	assert.Equal(t, model.ActionSkip, got[0].Action)
	assert.Equal(t, "ledger already has 2024-03-01 42.00", got[0].Reason)
	assert.Equal(t, model.ActionImport, got[1].Action)
	assert.Empty(t, got[1].Reason)

	got = Plan(txns, snapshot, false)
	assert.Equal(t, model.ActionImport, got[0].Action)
	assert.Equal(t, model.ActionImport, got[1].Action)
}

func TestPlan_Empty(t *testing.T) {
	assert.Empty(t, Plan(nil, nil, true))
}
