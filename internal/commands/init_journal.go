package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtimport/internal/config"
	"github.com/cleared-dev/stmtimport/internal/gitops"
	"github.com/cleared-dev/stmtimport/internal/journal"
)

func newInitJournalCommand() *cobra.Command {
	var account string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init-journal [directory]",
		Short: "Initialize a local journal ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInitJournal(cmd.Context(), cmd.OutOrStdout(), absDir, account, !noGit)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "default account to import into")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not create a git repository")

	return cmd
}

func runInitJournal(ctx context.Context, out io.Writer, dir, account string, useGit bool) error {
	if err := journal.InitLayout(dir); err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Ledger = config.LedgerJournal
	cfg.Account = account
	cfg.Journal.Dir = dir
	cfg.Journal.AutoCommit = useGit
	if err := config.Save(filepath.Join(dir, config.DefaultFile), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write logs/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "logs", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !useGit {
		fmt.Fprintf(out, "Initialized journal at %s\n", dir)
		return nil
	}

	if err := gitops.Init(ctx, dir); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Journal.AuthorName, Email: cfg.Journal.AuthorEmail}
	hash, err := gitops.CommitAll(ctx, dir, "init: Initialize journal", author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized journal at %s (%s)\n", dir, hash)
	return nil
}
