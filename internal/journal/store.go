// Package journal is a ledger kept as CSV files in a directory, optionally
// versioned with git.
//
// Layout:
//
//	accounts.csv              account_id,name
//	<YYYY>/<MM>/journal.csv   one row per transaction
//	logs/import-log.csv       one row per committed import
package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/stmtimport/internal/gitops"
	"github.com/cleared-dev/stmtimport/internal/id"
	"github.com/cleared-dev/stmtimport/internal/model"
)

const accountsFile = "accounts.csv"

// Options configures a Store.
type Options struct {
	RunID      string
	AutoCommit bool // git commit on Commit when the directory is a repository
	Author     gitops.Author
	Now        func() time.Time
}

// Store implements the importer ledger on a journal directory. Account and
// transaction creations are staged in memory until Commit.
type Store struct {
	root string
	opts Options

	newAccounts []model.Account
	staged      []stagedTxn
}

type stagedTxn struct {
	account model.Account
	txn     model.NewTransaction
}

// Open returns a Store for the journal directory root.
func Open(root string, opts Options) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening journal: %s is not a directory", root)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{root: root, opts: opts}, nil
}

// InitLayout creates an empty journal layout at root. Existing files are kept.
func InitLayout(root string) error {
	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating journal dirs: %w", err)
	}
	path := filepath.Join(root, accountsFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeFile(path, func(w io.Writer) error { return WriteAccounts(w, nil) }); err != nil {
			return err
		}
	}
	return nil
}

// Accounts returns the committed and staged accounts.
func (s *Store) Accounts() ([]model.Account, error) {
	f, err := os.Open(filepath.Join(s.root, accountsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return append([]model.Account(nil), s.newAccounts...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, err
	}
	return append(accts, s.newAccounts...), nil
}

// FetchAccount looks an account up by exact name.
func (s *Store) FetchAccount(_ context.Context, name string) (model.Account, bool, error) {
	accts, err := s.Accounts()
	if err != nil {
		return model.Account{}, false, err
	}
	for _, a := range accts {
		if a.Name == name {
			return a, true, nil
		}
	}
	return model.Account{}, false, nil
}

// CreateAccount stages a new account.
func (s *Store) CreateAccount(ctx context.Context, name string) (model.Account, error) {
	if strings.TrimSpace(name) == "" {
		return model.Account{}, errors.New("account name is empty")
	}
	if _, ok, err := s.FetchAccount(ctx, name); err != nil {
		return model.Account{}, err
	} else if ok {
		return model.Account{}, fmt.Errorf("account %q already exists", name)
	}

	acct := model.Account{ID: uuid.NewString(), Name: name}
	s.newAccounts = append(s.newAccounts, acct)
	return acct, nil
}

// ListTransactions returns every committed entry of acct.
func (s *Store) ListTransactions(_ context.Context, acct model.Account) ([]model.LedgerEntry, error) {
	paths, err := s.monthFiles()
	if err != nil {
		return nil, err
	}

	var out []model.LedgerEntry
	for _, p := range paths {
		entries, err := readJournal(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.AccountID == acct.ID {
				out = append(out, model.LedgerEntry{Date: e.Date, Amount: e.Amount})
			}
		}
	}
	return out, nil
}

// CreateTransaction validates txn and stages it for acct.
func (s *Store) CreateTransaction(_ context.Context, acct model.Account, txn model.NewTransaction) error {
	if errs := ValidateTransaction(txn); len(errs) > 0 {
		return joinValidation(errs)
	}
	accts, err := s.Accounts()
	if err != nil {
		return err
	}
	known := false
	for _, a := range accts {
		known = known || a.ID == acct.ID
	}
	if acct.ID == "" || !known {
		return fmt.Errorf("unknown account %q", acct.Name)
	}

	s.staged = append(s.staged, stagedTxn{account: acct, txn: txn})
	return nil
}

// Pending returns the number of staged transactions.
func (s *Store) Pending() int {
	return len(s.staged)
}

// Commit writes staged accounts and transactions and appends a row to the
// import log. With git enabled the data and the log row are committed
// separately, leaving a clean working tree.
func (s *Store) Commit(ctx context.Context) error {
	if len(s.newAccounts) == 0 && len(s.staged) == 0 {
		return nil
	}

	if len(s.newAccounts) > 0 {
		accts, err := s.Accounts()
		if err != nil {
			return err
		}
		path := filepath.Join(s.root, accountsFile)
		if err := writeFile(path, func(w io.Writer) error { return WriteAccounts(w, accts) }); err != nil {
			return err
		}
	}

	entryIDs, err := s.writeStaged()
	if err != nil {
		return err
	}

	names := s.accountNames()
	count := len(s.staged)
	useGit := s.opts.AutoCommit && gitops.IsRepo(s.root)
	var hash string
	if useGit {
		msg := fmt.Sprintf("import: %d transactions into %s", count, names)
		if hash, err = gitops.CommitAll(ctx, s.root, msg, s.opts.Author); err != nil {
			return err
		}
	}

	// The data is on disk and committed; a failure below must not stage it twice.
	s.newAccounts = nil
	s.staged = nil

	entry := LogEntry{
		Timestamp:  s.opts.Now().UTC(),
		RunID:      s.opts.RunID,
		Account:    names,
		Action:     "import",
		Details:    fmt.Sprintf("%d transactions", count),
		EntryIDs:   entryIDs,
		CommitHash: hash,
	}
	if err := AppendLog(s.root, []LogEntry{entry}); err != nil {
		return err
	}

	// The log row names the import commit, so it gets a commit of its own.
	if useGit {
		if _, err := gitops.CommitAll(ctx, s.root, "log: import run "+s.opts.RunID, s.opts.Author); err != nil {
			return fmt.Errorf("committing import log: %w", err)
		}
	}
	return nil
}

// writeStaged appends staged transactions to their month journals, in
// staging order, and returns the assigned entry IDs.
func (s *Store) writeStaged() ([]string, error) {
	type month struct{ year, month int }
	var order []month
	byMonth := make(map[month][]model.NewTransaction)
	accountOf := make(map[month][]string)
	for _, st := range s.staged {
		m := month{st.txn.Date.Year(), int(st.txn.Date.Month())}
		if _, seen := byMonth[m]; !seen {
			order = append(order, m)
		}
		byMonth[m] = append(byMonth[m], st.txn)
		accountOf[m] = append(accountOf[m], st.account.ID)
	}

	var ids []string
	for _, m := range order {
		path := s.monthPath(m.year, m.month)
		existing, err := readJournal(path)
		if err != nil {
			return nil, err
		}
		known := make([]string, len(existing))
		for i, e := range existing {
			known[i] = e.EntryID
		}
		seq := id.NextSeq(known, m.year, m.month)

		entries := existing
		for i, txn := range byMonth[m] {
			entryID := id.FormatEntryID(m.year, m.month, seq+i)
			entries = append(entries, Entry{
				EntryID:   entryID,
				Date:      txn.Date,
				AccountID: accountOf[m][i],
				Payee:     txn.Payee,
				Amount:    txn.Amount,
				Notes:     txn.Notes,
			})
			ids = append(ids, entryID)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating journal dir: %w", err)
		}
		if err := writeFile(path, func(w io.Writer) error { return WriteEntries(w, entries) }); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *Store) accountNames() string {
	var names []string
	seen := make(map[string]bool)
	for _, st := range s.staged {
		if !seen[st.account.Name] {
			seen[st.account.Name] = true
			names = append(names, st.account.Name)
		}
	}
	for _, a := range s.newAccounts {
		if !seen[a.Name] {
			seen[a.Name] = true
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

func (s *Store) monthFiles() ([]string, error) {
	pattern := filepath.Join(s.root, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "journal.csv")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	return paths, nil
}

func (s *Store) monthPath(year, month int) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}

func readJournal(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return entries, nil
}

// writeFile replaces path with the output of write.
func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
