package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"temposquare/internal/app"
	"temposquare/state"
)

var (
	stateShowIDs  bool
	stateResetYes bool
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the sync state.",
	Long: `The sync state holds the ids of worklogs already turned into timecards and the time
of the last completed sync. It lives in the backend configured under state.backend.`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the last sync time and the number of synced worklogs.",
	Example: `
  # Summary only
  temposquare state show

  # Include every synced worklog id
  temposquare state show --ids
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := openConfiguredStores(cmd.Context())
		if err != nil {
			return err
		}
		defer stores.Close()

		st, err := stores.State.Load(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("State backend: %s\n", stores.Where)
		printState(st, stateShowIDs)
		return nil
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all synced worklogs and the last sync time.",
	Long: `Reset the sync state to empty.

The next sync will consider every worklog in its window again and may create duplicate
timecards for worklogs that were already synced.`,
	Example: `
  # Reset after confirmation
  temposquare state reset

  # Reset without prompting
  temposquare state reset --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !stateResetYes {
			confirmed, err := confirm(os.Stdin, "This forgets every synced worklog. Continue? [y/N]: ")
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Reset aborted.")
				return nil
			}
		}

		stores, err := openConfiguredStores(cmd.Context())
		if err != nil {
			return err
		}
		defer stores.Close()

		if err := stores.State.Save(cmd.Context(), state.New()); err != nil {
			return err
		}
		fmt.Printf("Sync state reset: %s\n", stores.Where)
		return nil
	},
}

func openConfiguredStores(ctx context.Context) (*app.Stores, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.OpenStores(ctx, cfg)
}

func printState(st *state.State, withIDs bool) {
	if st.LastSync == nil {
		fmt.Println("Last sync: never")
	} else {
		fmt.Printf("Last sync: %s\n", state.FormatWatermark(*st.LastSync))
	}
	fmt.Printf("Synced worklogs: %d\n", len(st.SyncedWorklogIDs))
	if withIDs {
		for _, id := range st.IDs() {
			fmt.Println(id)
		}
	}
}

func confirm(in io.Reader, prompt string) (bool, error) {
	fmt.Print(prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && strings.TrimSpace(answer) == "" {
		return false, nil
	}
	return isYes(answer), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	stateShowCmd.Flags().BoolVar(&stateShowIDs, "ids", false, "Print every synced worklog id")
	stateResetCmd.Flags().BoolVarP(&stateResetYes, "yes", "y", false, "Do not prompt for confirmation")
}
