package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var checkRepair bool

var errInconsistent = errors.New("storage has inconsistent entries")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Find incomplete uploads in storage",
	Long: `Scan the storage directory for entries that do not form a complete
upload:
  - files without a metadata sidecar (never served)
  - metadata sidecars whose file is gone
  - staging files left behind by interrupted uploads

Entries younger than service.staging_grace are ignored, since an upload may
still be in progress. With --repair the reported entries are removed.
Exits non-zero when problems remain.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkRepair, "repair", false, "remove the reported entries")
	addOutputFlags(checkCmd)

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.service.Check(ctx, time.Now(), checkRepair)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	slog.Debug("check complete",
		"missing_metadata", len(report.MissingMetadata),
		"orphan_sidecars", len(report.OrphanSidecars),
		"stale_staging", len(report.StaleStaging),
		"repaired", report.Repaired,
	)

	if err := getFormatter(cmd).FormatCheck(os.Stdout, report); err != nil {
		return err
	}

	if !report.Clean() && !checkRepair {
		return errInconsistent
	}

	return nil
}
