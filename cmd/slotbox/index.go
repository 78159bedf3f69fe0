package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the upload ledger from storage",
	Long: `Scan the storage directory and record every complete upload in the
ledger. This is useful when:
  - Enabling the ledger on a server that already holds files
  - Recovering the ledger after database loss

Files without metadata are skipped; run "slotbox check" to find them.`,
	RunE: runIndex,
}

func init() {
	addOutputFlags(indexCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, appOptions{requireLedger: true})
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("scanning storage directory", "path", a.cfg.Storage.Path)

	indexed, err := a.service.Index(ctx)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	slog.Info("index complete", "files_indexed", indexed)
	return getFormatter(cmd).FormatIndex(os.Stdout, indexed)
}
