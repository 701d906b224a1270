package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"temposquare/internal/app"
	"temposquare/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs (sqlite state backend only).",
	Example: `
  # Show the last 20 runs
  temposquare history

  # Show every recorded run
  temposquare history --limit 0
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openConfiguredStores(cmd.Context())
		if err != nil {
			return err
		}
		defer stores.Close()

		if stores.History == nil {
			return app.ErrNoHistory
		}

		runs, err := stores.History.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No sync runs recorded yet.")
			return nil
		}
		printRuns(runs)
		return nil
	},
}

func printRuns(runs []storage.RunRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tWINDOW\tMODE\tFETCHED\tCREATED\tSKIPPED\tERRORS")
	for _, run := range runs {
		mode := "sync"
		if run.DryRun {
			mode = "dry-run"
		}
		fmt.Fprintf(w, "%d\t%s\t%s..%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID,
			run.StartedAt.In(time.Local).Format("2006-01-02 15:04"),
			run.From,
			run.To,
			mode,
			run.Fetched,
			run.Created,
			run.Skipped,
			run.Errors,
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show (0 shows all)")
}
