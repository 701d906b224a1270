package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the temposquare configuration file.",
	Long: `Create, edit, display, and delete the temposquare configuration file.

The configuration holds API credentials and sync settings:
- tempo.api_token / tempo.base_url
- jira.base_url / jira.email / jira.api_token (identity.strategy=directory)
- square.access_token / square.environment / square.location_id / square.timezone
- identity.strategy / identity.mapping / identity.mapping_file
- state.backend / state.path / state.s3_bucket / state.s3_key
- notify.slack / notify.email

Any credential can be written as "ssm:/parameter/name" and is read from AWS SSM
Parameter Store when a command needs it. Every key can also be set through an
environment variable with the TEMPOSQUARE_ prefix, e.g. TEMPOSQUARE_SQUARE_ACCESS_TOKEN.`,
	Example: `
  # Create default config in $HOME/.temposquare.yaml
  temposquare config create

  # Show active config and source file
  temposquare config show

  # Open active config in editor (creates example if missing)
  temposquare config edit

  # Delete active config file
  temposquare config delete --yes
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
