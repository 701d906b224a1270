package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"temposquare/internal/app"
	"temposquare/internal/timeutil"
	"temposquare/report"
	"temposquare/syncer"
)

var (
	syncFromDay string
	syncToDay   string
	syncDryRun  bool
	syncReport  string
	syncTimeout time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create Square timecards for new Tempo worklogs",
	Long: `Fetch Tempo worklogs for a date window and create one Square timecard per worklog.

For each worklog the command:
- skips it if its id was synced by an earlier run
- resolves the author to an active Square team member by email
- skips it with a warning when no team member matches
- creates the timecard and records the worklog id as synced

The window defaults to the last 30 days. After a non-dry run the state is saved and
the next run only asks Tempo for worklogs updated since then.
In --dry-run mode no timecards are created and the state is left untouched.
The command exits with status 1 when any worklog failed.`,
	Example: `
  # Sync the last 30 days
  temposquare sync

  # Preview a window without writing anything
  temposquare sync --from 2026-02-01 --to 2026-02-28 --dry-run

  # Write per-worklog outcomes to Excel
  temposquare sync --report ./sync-report.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseSyncRange(syncFromDay, syncToDay)
		if err != nil {
			return err
		}

		var writer report.Writer
		if strings.TrimSpace(syncReport) != "" {
			writer, err = report.WriterForPath(syncReport)
			if err != nil {
				return err
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), syncTimeout)
		defer cancel()

		application, err := app.New(ctx, cfg, slog.Default())
		if err != nil {
			return err
		}
		defer application.Close()

		summary, runErr := application.Sync(ctx, syncer.RunOptions{From: from, To: to, DryRun: syncDryRun})
		if summary != nil {
			printSyncSummary(summary)
			if writer != nil {
				if err := writer.Write(syncReport, summary); err != nil {
					return err
				}
				fmt.Printf("Report written to: %s\n", syncReport)
			}
		}
		if runErr != nil {
			return runErr
		}
		if summary.Failed() {
			return syncer.ErrRunHadErrors
		}
		return nil
	},
}

func parseSyncRange(fromValue, toValue string) (*time.Time, *time.Time, error) {
	var from *time.Time
	var to *time.Time
	if strings.TrimSpace(fromValue) != "" {
		day, err := timeutil.ParseDay(fromValue)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --from value %q (expected YYYY-MM-DD)", fromValue)
		}
		from = &day
	}
	if strings.TrimSpace(toValue) != "" {
		day, err := timeutil.ParseDay(toValue)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --to value %q (expected YYYY-MM-DD)", toValue)
		}
		to = &day
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("invalid range: --from must be <= --to")
	}
	return from, to, nil
}

func printSyncSummary(summary *syncer.Summary) {
	mode := "Sync"
	created := "Created"
	if summary.DryRun {
		mode = "Dry run"
		created = "Would create"
	}
	fmt.Printf("%s window: %s to %s\n", mode, timeutil.FormatDay(summary.From), timeutil.FormatDay(summary.To))
	fmt.Printf("Fetched: %d (already synced: %d, duplicates: %d)\n", summary.Fetched, summary.AlreadySynced, summary.Duplicates)
	fmt.Printf("%s: %d, Skipped: %d, Errors: %d\n", created, summary.Created, summary.Skipped, summary.Errors)
	if summary.Interrupted {
		fmt.Println("Run interrupted before all worklogs were processed.")
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncFromDay, "from", "", "Start day YYYY-MM-DD (default: 30 days ago)")
	syncCmd.Flags().StringVar(&syncToDay, "to", "", "End day YYYY-MM-DD (default: today)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Log what would be created without calling Square or saving state")
	syncCmd.Flags().StringVar(&syncReport, "report", "", "Write per-worklog outcomes to a .csv or .xlsx file")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 10*time.Minute, "Maximum duration of the whole sync run")
}
