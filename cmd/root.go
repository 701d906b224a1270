/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"temposquare/config"
)

const envPrefix = "TEMPOSQUARE"

var (
	cfgFile string
	verbose bool

	// configReadErr is set when the file named by --config could not be read.
	configReadErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "temposquare",
	Short: "Sync Tempo worklogs into Square Labor timecards.",
	Long: `
**********************************************
*            TEMPO -> SQUARE                 *
**********************************************

This CLI pulls Tempo worklogs for a date window, matches each author to a Square
team member by email, and creates one Square timecard per worklog. Worklogs that
were already synced are skipped, so the sync can run on a schedule.

Identity strategies:
- directory: look up the author's email through the Jira user API
- static: use the account id to email mapping from the config file
`,
	Example: `
  # Create configuration file
  temposquare config create

  # Preview the last 30 days without creating timecards
  temposquare sync --dry-run

  # Sync an explicit window and write a report
  temposquare sync --from 2026-02-01 --to 2026-02-28 --report ./sync-report.xlsx

  # List Square team members to fill identity.mapping
  temposquare team-members

  # Inspect or reset the sync state
  temposquare state show
  temposquare state reset
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file override (default discovery: $HOME/.temposquare.yaml, then ./.temposquare.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig validates the active configuration for commands that talk to the APIs.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil {
		return nil, configReadErr
	}
	if viper.ConfigFileUsed() == "" && cfgFile == "" {
		slog.Debug("no config file loaded, relying on environment", "prefix", envPrefix)
	}
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".temposquare" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".temposquare")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	configReadErr = nil
	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			configReadErr = fmt.Errorf("read config file %s: %w", cfgFile, err)
			return
		}
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: temposquare config create")
	}
}
