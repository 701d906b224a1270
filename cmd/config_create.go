package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"temposquare/config"
)

var configCreateStdout bool

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the same example template used by "config edit".

An existing configuration file is never overwritten. With --stdout the template is
printed instead, e.g. to build the file shipped with the Lambda function
(TEMPOSQUARE_CONFIG_FILE).`,
	Example: `
  # Create default config at $HOME/.temposquare.yaml
  temposquare config create

  # Create a config for a second Square location
  temposquare --config ./location-b.yaml config create

  # Print the template for the Lambda bundle
  temposquare config create --stdout > lambda/temposquare.yaml
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configCreateStdout {
			_, err := io.WriteString(cmd.OutOrStdout(), config.ExampleYAML())
			return err
		}
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		return createConfigFile(cmd.OutOrStdout(), configPath)
	},
}

func createConfigFile(out io.Writer, configPath string) error {
	created, err := ensureConfigFileWithTemplate(configPath)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(out, "Config file already exists at: %s\n", configPath)
		return nil
	}

	fmt.Fprintf(out, "New config file created at: %s\n", configPath)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Fill in tempo.api_token, square.access_token and square.location_id")
	fmt.Fprintln(out, "  2. Set jira.* or switch identity.strategy to static")
	fmt.Fprintln(out, "  3. Preview with: temposquare sync --dry-run")
	return nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)
	configCreateCmd.Flags().BoolVar(&configCreateStdout, "stdout", false, "Print the template instead of writing a file")
}
