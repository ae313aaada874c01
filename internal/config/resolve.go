package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by Resolve.
const (
	EnvURL                = "ACTUAL_URL"
	EnvPassword           = "ACTUAL_PASSWORD"
	EnvBudget             = "ACTUAL_BUDGET"
	EnvAccount            = "ACTUAL_ACCOUNT"
	EnvEncryptionPassword = "ACTUAL_ENCRYPTION_PASSWORD"
	EnvLedger             = "STMTIMPORT_LEDGER"
	EnvJournalDir         = "STMTIMPORT_JOURNAL_DIR"
	EnvLogLevel           = "STMTIMPORT_LOG_LEVEL"
	EnvLogFormat          = "STMTIMPORT_LOG_FORMAT"
)

// ErrMissingParam is wrapped by Validate errors.
var ErrMissingParam = errors.New("missing parameter")

// Overrides holds values given on the command line. Empty strings are unset.
type Overrides struct {
	Ledger         string
	URL            string
	Password       string
	Budget         string
	Account        string
	JournalDir     string
	NoSkipExisting bool
	LogLevel       string
	LogFormat      string
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Resolve merges file values, the environment and command-line overrides,
// in increasing order of precedence. file is not modified.
func Resolve(file *Config, o Overrides, getenv func(string) string) *Config {
	cfg := *file
	cfg.applyEnv(getenv)
	cfg.applyOverrides(o)
	return &cfg
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Actual.URL, EnvURL)
	set(&c.Actual.Password, EnvPassword)
	set(&c.Actual.Budget, EnvBudget)
	set(&c.Actual.EncryptionPassword, EnvEncryptionPassword)
	set(&c.Account, EnvAccount)
	set(&c.Ledger, EnvLedger)
	set(&c.Journal.Dir, EnvJournalDir)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.Log.Format, EnvLogFormat)
}

func (c *Config) applyOverrides(o Overrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Ledger, o.Ledger)
	set(&c.Actual.URL, o.URL)
	set(&c.Actual.Password, o.Password)
	set(&c.Actual.Budget, o.Budget)
	set(&c.Account, o.Account)
	set(&c.Journal.Dir, o.JournalDir)
	set(&c.Log.Level, o.LogLevel)
	set(&c.Log.Format, o.LogFormat)
	if o.NoSkipExisting {
		c.SkipExisting = false
	}
}

// Validate checks that every parameter the selected ledger needs is set.
func (c *Config) Validate() error {
	missing := func(what, flag, env string) error {
		return fmt.Errorf("%w: %s is required (use --%s or set %s environment variable)", ErrMissingParam, what, flag, env)
	}

	switch c.Ledger {
	case LedgerActual:
		if c.Actual.URL == "" {
			return missing("URL", "url", EnvURL)
		}
		if c.Actual.Password == "" {
			return missing("Password", "password", EnvPassword)
		}
		if c.Actual.Budget == "" {
			return missing("Budget name", "budget", EnvBudget)
		}
	case LedgerJournal:
		if c.Journal.Dir == "" {
			return missing("Journal directory", "journal-dir", EnvJournalDir)
		}
	default:
		return fmt.Errorf("unknown ledger %q (want %q or %q)", c.Ledger, LedgerActual, LedgerJournal)
	}

	if c.Account == "" {
		return missing("Account name", "account", EnvAccount)
	}
	return nil
}
