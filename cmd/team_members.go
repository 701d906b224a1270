package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"temposquare/internal/app"
	"temposquare/square"
)

var teamMembersTimeout time.Duration

var teamMembersCmd = &cobra.Command{
	Use:   "team-members",
	Short: "List active Square team members",
	Long: `List the active Square team members with their ids and emails.

Use the output to fill identity.mapping when the static identity strategy is configured.
Members without an email address cannot be matched and are marked as such.`,
	Example: `
  # Show the active roster
  temposquare team-members
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), teamMembersTimeout)
		defer cancel()

		if err := app.ResolveSecrets(ctx, cfg); err != nil {
			return err
		}
		client, err := app.NewSquareClient(cfg)
		if err != nil {
			return err
		}

		members, err := client.ListTeamMembers(ctx)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			fmt.Println("No active team members found.")
			return nil
		}

		printTeamMembers(members)
		return nil
	},
}

func printTeamMembers(members []square.TeamMember) {
	sorted := append([]square.TeamMember(nil), members...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].FullName()) < strings.ToLower(sorted[j].FullName())
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tSTATUS\tEMAIL")
	for _, member := range sorted {
		email := member.EmailAddress
		if strings.TrimSpace(email) == "" {
			email = "(no email)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", member.FullName(), member.ID, member.Status, email)
	}
	_ = w.Flush()
	fmt.Printf("\n%d team member(s)\n", len(sorted))
}

func init() {
	rootCmd.AddCommand(teamMembersCmd)
	teamMembersCmd.Flags().DurationVar(&teamMembersTimeout, "timeout", 60*time.Second, "Timeout for Square API calls")
}
