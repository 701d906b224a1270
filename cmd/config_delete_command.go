package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configDeleteYes bool

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by temposquare.

If no configuration file is active, the command returns an error.
A rejected edit left by "config edit" is removed with it. The sync state is kept;
use "temposquare state reset" to clear it.`,
	Example: `
  # Delete active config after confirmation
  temposquare config delete

  # Delete config at a custom path without prompting
  temposquare --config ./custom-temposquare.yaml config delete --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			return fmt.Errorf("no configuration file found")
		}

		if !configDeleteYes {
			confirmed, err := confirm(os.Stdin, fmt.Sprintf("Delete %s? [y/N]: ", configPath))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Delete aborted.")
				return nil
			}
		}

		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("error deleting configuration file: %w", err)
		}

		if err := os.Remove(configPath + rejectedSuffix); err == nil {
			fmt.Printf("Removed rejected edit: %s%s\n", configPath, rejectedSuffix)
		}

		fmt.Printf("Configuration file successfully deleted: %s\n", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
	configDeleteCmd.Flags().BoolVarP(&configDeleteYes, "yes", "y", false, "Do not prompt for confirmation")
}
