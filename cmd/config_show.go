package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"temposquare/config"
	"temposquare/secrets"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Credentials are
masked; "ssm:" references are shown as written and not resolved.`,
	Example: `
  # Show active configuration
  temposquare config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file loaded; values come from defaults and TEMPOSQUARE_* environment variables.")
		}
		printConfig(cfg)
	},
}

func printConfig(cfg *config.Config) {
	fmt.Println("Configuration:")
	fmt.Printf("tempo.base_url: %s\n", cfg.Tempo.BaseURL)
	fmt.Printf("tempo.api_token: %s\n", maskSecret(cfg.Tempo.APIToken))
	fmt.Printf("jira.base_url: %s\n", cfg.Jira.BaseURL)
	fmt.Printf("jira.email: %s\n", cfg.Jira.Email)
	fmt.Printf("jira.api_token: %s\n", maskSecret(cfg.Jira.APIToken))
	fmt.Printf("square.environment: %s\n", cfg.Square.Environment)
	fmt.Printf("square.access_token: %s\n", maskSecret(cfg.Square.AccessToken))
	fmt.Printf("square.location_id: %s\n", cfg.Square.LocationID)
	fmt.Printf("square.timezone: %s\n", valueOr(cfg.Square.Timezone, "(naive timestamps)"))
	fmt.Printf("square.job_title: %s\n", cfg.Square.JobTitle)
	fmt.Printf("square.hourly_rate: %d %s\n", cfg.Square.HourlyRate, cfg.Square.Currency)
	fmt.Printf("filter_projects: %s\n", valueOr(strings.Join(cfg.FilterProjects, ", "), "(all)"))
	fmt.Printf("identity.strategy: %s\n", cfg.Identity.Strategy)
	fmt.Printf("identity.mapping: %d entries\n", len(cfg.Identity.Mapping))
	fmt.Printf("identity.mapping_file: %s\n", cfg.Identity.MappingFile)
	fmt.Printf("state.backend: %s\n", cfg.State.Backend)
	switch cfg.State.Backend {
	case config.BackendS3:
		fmt.Printf("state.s3_bucket: %s\n", cfg.State.S3Bucket)
		fmt.Printf("state.s3_key: %s\n", cfg.State.S3Key)
	default:
		fmt.Printf("state.path: %s\n", cfg.State.Path)
	}
	fmt.Printf("notify.only_on_errors: %t\n", cfg.Notify.OnlyOnErrors)
	fmt.Printf("notify.slack: %s\n", enabledLabel(cfg.Notify.Slack.Enabled(), cfg.Notify.Slack.Channel))
	fmt.Printf("notify.email: %s\n", enabledLabel(cfg.Notify.Email.Enabled(), strings.Join(cfg.Notify.Email.To, ", ")))
}

func maskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		return "(not set)"
	case secrets.IsReference(trimmed):
		return trimmed
	case len(trimmed) <= 4:
		return "****"
	default:
		return "****" + trimmed[len(trimmed)-4:]
	}
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func enabledLabel(enabled bool, target string) string {
	if !enabled {
		return "disabled"
	}
	return "enabled (" + target + ")"
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
