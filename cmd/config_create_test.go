package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"temposquare/config"
)

func TestCreateConfigFileWritesTemplateAndNextSteps(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "nested", "temposquare.yaml")
	var out bytes.Buffer

	if err := createConfigFile(&out, configPath); err != nil {
		t.Fatalf("unexpected error creating config: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
	if string(content) != config.ExampleYAML() {
		t.Fatalf("expected example template, got:\n%s", content)
	}
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected config file mode 0600, got %o", info.Mode().Perm())
	}
	if !strings.Contains(out.String(), "temposquare sync --dry-run") {
		t.Fatalf("expected next steps in output, got:\n%s", out.String())
	}
}

func TestCreateConfigFileKeepsExistingFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "existing.yaml")
	original := "tempo:\n  api_token: \"existing\"\nsquare:\n  location_id: \"L1\"\n"
	if err := os.WriteFile(configPath, []byte(original), 0o644); err != nil {
		t.Fatalf("failed writing initial config: %v", err)
	}

	var out bytes.Buffer
	if err := createConfigFile(&out, configPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed reading config: %v", err)
	}
	if string(content) != original {
		t.Fatalf("expected existing config to remain unchanged")
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestExampleTemplateTargetsSandbox(t *testing.T) {
	t.Parallel()

	text := config.ExampleYAML()
	for _, want := range []string{"# temposquare configuration", "square:", `environment: "sandbox"`, "identity:", "state:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in example template", want)
		}
	}
}
