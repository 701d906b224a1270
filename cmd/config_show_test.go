package cmd

import (
	"testing"

	"temposquare/config"
)

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                    "(not set)",
		"abc":                 "****",
		"EAAAl1234567890wxyz": "****wxyz",
		"ssm:/temposquare/x":  "ssm:/temposquare/x",
	}
	for input, want := range tests {
		if got := maskSecret(input); got != want {
			t.Fatalf("maskSecret(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestCountSecretReferences(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Tempo.APIToken = "ssm:/tempo"
	cfg.Square.AccessToken = "plain"
	cfg.Notify.Slack.Token = "ssm:/slack"

	if got := countSecretReferences(cfg); got != 2 {
		t.Fatalf("expected 2 references, got %d", got)
	}
}
