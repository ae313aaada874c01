// Package actual is a ledger backed by an Actual Budget server, reached
// through the actual-http-api REST bridge.
package actual

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtimport/internal/model"
)

const (
	apiKeyHeader     = "x-api-key"
	encryptionHeader = "budget-encryption-password"
	dateFormat       = "2006-01-02"
	defaultSince     = "1970-01-01"
)

// ErrInvalidTransaction is returned by CreateTransaction for transactions
// the server would not accept.
var ErrInvalidTransaction = errors.New("invalid transaction")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("actual: HTTP %d", e.Status)
	}
	return fmt.Sprintf("actual: HTTP %d: %s", e.Status, e.Message)
}

// Config holds connection settings.
type Config struct {
	URL                string
	Password           string
	Budget             string // budget sync ID
	EncryptionPassword string
	Timeout            time.Duration
	HTTPClient         *http.Client // optional, overrides Timeout
}

// Client implements the importer ledger. Created transactions are staged
// and sent to the server on Commit.
type Client struct {
	base   *url.URL
	cfg    Config
	http   *http.Client
	staged map[string][]apiTransaction
	order  []string // account IDs in staging order
}

type apiAccount struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	OffBudget bool   `json:"offbudget"`
	Closed    bool   `json:"closed,omitempty"`
}

type apiTransaction struct {
	ID        string `json:"id,omitempty"`
	Account   string `json:"account,omitempty"`
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q: scheme must be http or https", cfg.URL)
	}
	if cfg.Budget == "" {
		return nil, errors.New("budget is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{base: u, cfg: cfg, http: hc, staged: make(map[string][]apiTransaction)}, nil
}

// FetchAccount finds an open account by exact name.
func (c *Client) FetchAccount(ctx context.Context, name string) (model.Account, bool, error) {
	var accounts []apiAccount
	if err := c.do(ctx, http.MethodGet, c.budgetPath("accounts"), nil, &accounts); err != nil {
		return model.Account{}, false, err
	}
	for _, a := range accounts {
		if a.Name == name && !a.Closed {
			return model.Account{ID: a.ID, Name: a.Name}, true, nil
		}
	}
	return model.Account{}, false, nil
}

// CreateAccount creates an on-budget account with a zero balance.
// Unlike transactions, accounts are created immediately.
func (c *Client) CreateAccount(ctx context.Context, name string) (model.Account, error) {
	body := map[string]any{
		"account":        apiAccount{Name: name},
		"initialBalance": 0,
	}
	var id string
	if err := c.do(ctx, http.MethodPost, c.budgetPath("accounts"), body, &id); err != nil {
		return model.Account{}, err
	}
	if id == "" {
		return model.Account{}, errors.New("actual: server returned no account id")
	}
	return model.Account{ID: id, Name: name}, nil
}

// ListTransactions returns all transactions of acct.
func (c *Client) ListTransactions(ctx context.Context, acct model.Account) ([]model.LedgerEntry, error) {
	path := c.budgetPath("accounts", acct.ID, "transactions") + "?since_date=" + defaultSince
	var txns []apiTransaction
	if err := c.do(ctx, http.MethodGet, path, nil, &txns); err != nil {
		return nil, err
	}

	entries := make([]model.LedgerEntry, 0, len(txns))
	for _, t := range txns {
		d, err := time.Parse(dateFormat, t.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parsing date %q: %w", t.ID, t.Date, err)
		}
		entries = append(entries, model.LedgerEntry{Date: d, Amount: FromCents(t.Amount)})
	}
	return entries, nil
}

// CreateTransaction validates txn and stages it for acct.
func (c *Client) CreateTransaction(_ context.Context, acct model.Account, txn model.NewTransaction) error {
	if acct.ID == "" {
		return fmt.Errorf("%w: account %q has no id", ErrInvalidTransaction, acct.Name)
	}
	if strings.TrimSpace(txn.Payee) == "" {
		return fmt.Errorf("%w: empty payee", ErrInvalidTransaction)
	}
	cents, err := ToCents(txn.Amount)
	if err != nil {
		return err
	}

	if _, ok := c.staged[acct.ID]; !ok {
		c.order = append(c.order, acct.ID)
	}
	c.staged[acct.ID] = append(c.staged[acct.ID], apiTransaction{
		Account:   acct.ID,
		Date:      txn.Date.Format(dateFormat),
		Amount:    cents,
		PayeeName: txn.Payee,
		Notes:     txn.Notes,
	})
	return nil
}

// Pending returns the number of staged transactions.
func (c *Client) Pending() int {
	n := 0
	for _, txns := range c.staged {
		n += len(txns)
	}
	return n
}

// Commit sends staged transactions, one batch per account. Accounts sent
// successfully are unstaged even if a later batch fails.
func (c *Client) Commit(ctx context.Context) error {
	for len(c.order) > 0 {
		acctID := c.order[0]
		body := map[string]any{
			"learnCategories": false,
			"runTransfers":    false,
			"transactions":    c.staged[acctID],
		}
		path := c.budgetPath("accounts", acctID, "transactions", "batch")
		if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
			return err
		}
		delete(c.staged, acctID)
		c.order = c.order[1:]
	}
	return nil
}

// ToCents converts an amount to integer cents. Amounts with more than two
// decimal places, or too large for int64 cents, are rejected.
func ToCents(amount decimal.Decimal) (int64, error) {
	if !amount.Equal(amount.Round(2)) {
		return 0, fmt.Errorf("%w: amount %s is not a whole number of cents", ErrInvalidTransaction, amount.String())
	}
	cents := amount.Shift(2).BigInt()
	if !cents.IsInt64() {
		return 0, fmt.Errorf("%w: amount %s is out of range", ErrInvalidTransaction, amount.String())
	}
	return cents.Int64(), nil
}

// FromCents converts integer cents to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func (c *Client) budgetPath(parts ...string) string {
	escaped := make([]string, 0, len(parts)+3)
	escaped = append(escaped, "v1", "budgets", url.PathEscape(c.cfg.Budget))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/" + strings.Join(escaped, "/")
}

// do sends a JSON request and decodes the "data" member of the response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.cfg.Password)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.EncryptionPassword != "" {
		req.Header.Set(encryptionHeader, c.cfg.EncryptionPassword)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return strings.TrimSpace(string(body))
}
