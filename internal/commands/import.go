package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtimport/internal/actual"
	"github.com/cleared-dev/stmtimport/internal/config"
	"github.com/cleared-dev/stmtimport/internal/gitops"
	"github.com/cleared-dev/stmtimport/internal/importer"
	"github.com/cleared-dev/stmtimport/internal/journal"
	"github.com/cleared-dev/stmtimport/internal/logger"
	"github.com/cleared-dev/stmtimport/internal/report"
	"github.com/cleared-dev/stmtimport/internal/statement"
)

type importFlags struct {
	overrides config.Overrides
	dryRun    bool
}

func newImportCommand(g *globalFlags) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import transactions from a bank statement CSV",
		Long: `Import transactions from a semicolon-separated bank statement into an
Actual Budget account or a local journal.

Parameters not given as flags are read from the environment
(ACTUAL_URL, ACTUAL_PASSWORD, ACTUAL_BUDGET, ACTUAL_ACCOUNT), a .env file,
or stmtimport.yaml.`,
		Example: `  stmtimport import march.csv --url http://localhost:5007 --password key --budget my-budget --account "Conto Corrente"
  stmtimport import march.csv --account "Conto Corrente" --dry-run
  stmtimport import march.csv --ledger journal --journal-dir ./books --account "Conto Corrente"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.overrides.LogLevel = g.logLevel
			f.overrides.LogFormat = g.logFormat
			return runImport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], g.configPath, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.overrides.URL, "url", "", "Actual server URL (e.g. http://localhost:5007)")
	fl.StringVar(&f.overrides.Password, "password", "", "Actual server API key")
	fl.StringVar(&f.overrides.Budget, "budget", "", "budget sync ID")
	fl.StringVar(&f.overrides.Account, "account", "", "account to import transactions into")
	fl.StringVar(&f.overrides.Ledger, "ledger", "", "ledger backend: actual or journal")
	fl.StringVar(&f.overrides.JournalDir, "journal-dir", "", "journal directory (journal ledger)")
	fl.BoolVar(&f.overrides.NoSkipExisting, "no-skip-existing", false, "do not skip potentially duplicate transactions")
	fl.BoolVar(&f.dryRun, "dry-run", false, "preview transactions without importing")

	return cmd
}

func runImport(ctx context.Context, stdout, stderr io.Writer, csvPath, configPath string, f importFlags) error {
	file, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	cfg := config.Resolve(file, f.overrides, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := checkCSVFile(csvPath); err != nil {
		return err
	}

	runID := uuid.NewString()
	log := logger.New(stderr, cfg.Log.Level, cfg.Log.Format).With().
		Str("run_id", runID).
		Str("ledger", cfg.Ledger).
		Logger()
	ctx = logger.WithContext(ctx, log)

	st, err := statement.ReadFile(csvPath)
	if err != nil {
		return err
	}

	ledger, err := openLedger(ctx, cfg, runID)
	if err != nil {
		return err
	}

	opts := importer.Options{
		Account:      cfg.Account,
		SkipExisting: cfg.SkipExisting,
		Preview:      f.dryRun,
	}
	res, runErr := importer.NewPlanner(ledger, log).Run(ctx, st.Rows, opts)

	report.Write(stdout, report.Report{
		Source:  csvPath,
		Header:  st.Header,
		Result:  res,
		Preview: f.dryRun,
	})
	return runErr
}

func checkCSVFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("CSV file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("checking CSV file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("CSV file %s is a directory", path)
	}
	return nil
}

func loadConfigFile(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOptional(config.DefaultFile)
}

func openLedger(ctx context.Context, cfg *config.Config, runID string) (importer.Ledger, error) {
	log := logger.FromContext(ctx)

	switch cfg.Ledger {
	case config.LedgerJournal:
		dir, err := filepath.Abs(cfg.Journal.Dir)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		log.Debug().Str("dir", dir).Msg("opening journal")
		return journal.Open(dir, journal.Options{
			RunID:      runID,
			AutoCommit: cfg.Journal.AutoCommit,
			Author:     gitops.Author{Name: cfg.Journal.AuthorName, Email: cfg.Journal.AuthorEmail},
		})
	case config.LedgerActual:
		log.Debug().Str("url", cfg.Actual.URL).Str("budget", cfg.Actual.Budget).Msg("connecting to Actual server")
		return actual.New(actual.Config{
			URL:                cfg.Actual.URL,
			Password:           cfg.Actual.Password,
			Budget:             cfg.Actual.Budget,
			EncryptionPassword: cfg.Actual.EncryptionPassword,
			Timeout:            cfg.Actual.Timeout,
		})
	}
	return nil, errors.New("no ledger configured")
}
