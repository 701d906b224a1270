package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"temposquare/config"
	"temposquare/secrets"
)

const rejectedSuffix = ".rejected"

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active temposquare config file in $VISUAL, $EDITOR or vi.

A missing config file is created from the example template first. When the editor
exits the file is validated. An invalid edit is moved to <config>.rejected and the
previous content is restored, so a scheduled sync keeps running with the last good
configuration.

"ssm:" references are only checked for syntax here; they are resolved when a command
needs the credential.`,
	Example: `
  # Edit active config
  temposquare config edit

  # Edit with a specific editor
  EDITOR="code --wait" temposquare config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", configPath)
		}

		editor := resolveEditorValue(os.Getenv("VISUAL"), os.Getenv("EDITOR"))
		session := &configEditSession{
			path: configPath,
			launch: func(path string) error {
				editorCommand, err := buildEditorCommand(editor, path)
				if err != nil {
					return err
				}
				editorCommand.Stdin = os.Stdin
				editorCommand.Stdout = os.Stdout
				editorCommand.Stderr = os.Stderr
				return editorCommand.Run()
			},
		}

		cfg, err := session.run()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration saved and validated: %s\n", configPath)
		if refs := countSecretReferences(cfg); refs > 0 {
			fmt.Printf("%d credential(s) reference AWS SSM and will be resolved at run time.\n", refs)
		}
		return nil
	},
}

// configEditSession edits one config file and rolls back edits that do not validate.
type configEditSession struct {
	path   string
	launch func(path string) error
}

func (s *configEditSession) run() (*config.Config, error) {
	previous, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading config before edit: %w", err)
	}

	if err := s.launch(s.path); err != nil {
		return nil, fmt.Errorf("opening editor failed: %w", err)
	}

	edited, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading edited config failed: %w", err)
	}

	cfg, validateErr := config.ValidateYAMLContent(edited)
	if validateErr == nil {
		_ = os.Remove(s.path + rejectedSuffix)
		return cfg, nil
	}

	rejected := s.path + rejectedSuffix
	if err := os.WriteFile(rejected, edited, 0o600); err != nil {
		return nil, fmt.Errorf("config validation failed in %s and saving the edit failed: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, previous, 0o600); err != nil {
		return nil, fmt.Errorf("config validation failed in %s and restoring it failed: %w", s.path, err)
	}
	return nil, fmt.Errorf("config validation failed in %s (edit kept in %s, previous content restored): %w", s.path, rejected, validateErr)
}

func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	for _, candidate := range []string{configFileFlag, configFileUsed} {
		if strings.TrimSpace(candidate) != "" {
			return candidate, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".temposquare.yaml"), nil
}

// ensureConfigFileWithTemplate writes the example config to path unless a file exists there.
func ensureConfigFileWithTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	// The file holds API tokens.
	if err := os.WriteFile(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("creating example config failed: %w", err)
	}
	return true, nil
}

func countSecretReferences(cfg *config.Config) int {
	count := 0
	for _, field := range cfg.Secrets() {
		if secrets.IsReference(*field) {
			count++
		}
	}
	return count
}

func resolveEditorValue(visual, editor string) string {
	for _, candidate := range []string{visual, editor} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "vi"
}

func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(editorValue)
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}
	return exec.Command(fields[0], append(fields[1:], configPath)...), nil
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
