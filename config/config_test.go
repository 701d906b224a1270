package config

import (
	"strings"
	"testing"
)

const baseYAML = `tempo:
  api_token: "tempo-token"
jira:
  base_url: "https://example.atlassian.net"
  email: "bot@example.com"
  api_token: "jira-token"
square:
  access_token: "sq-token"
  location_id: "L1"
`

func TestValidateYAMLContent_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(baseYAML))
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Tempo.BaseURL != "https://api.tempo.io/4" {
		t.Fatalf("unexpected tempo base url: %q", cfg.Tempo.BaseURL)
	}
	if cfg.Square.Environment != "sandbox" || cfg.Square.Currency != "USD" {
		t.Fatalf("unexpected square defaults: %+v", cfg.Square)
	}
	if cfg.Identity.Strategy != StrategyDirectory {
		t.Fatalf("expected directory strategy by default, got %q", cfg.Identity.Strategy)
	}
	if cfg.State.Backend != BackendFile || cfg.State.Path != DefaultStatePath {
		t.Fatalf("unexpected state defaults: %+v", cfg.State)
	}
	if !cfg.Notify.OnlyOnErrors || cfg.Notify.Slack.Enabled() || cfg.Notify.Email.Enabled() {
		t.Fatalf("unexpected notify defaults: %+v", cfg.Notify)
	}
}

func TestValidateYAMLContent_ExampleNeedsCredentials(t *testing.T) {
	t.Parallel()

	_, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err == nil {
		t.Fatalf("expected example config without credentials to fail validation")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateYAMLContent_Rejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		extra   string
		replace [2]string
		want    string
	}{
		{
			name:    "unknown environment",
			replace: [2]string{`location_id: "L1"`, "location_id: \"L1\"\n  environment: \"staging\""},
			want:    "Environment",
		},
		{
			name:    "missing jira for directory strategy",
			replace: [2]string{`api_token: "jira-token"`, `api_token: ""`},
			want:    "requires jira.base_url",
		},
		{
			name:  "static without mapping",
			extra: "identity:\n  strategy: static\n",
			want:  "requires identity.mapping",
		},
		{
			name:  "s3 without bucket",
			extra: "state:\n  backend: s3\n",
			want:  "state.s3_bucket is required",
		},
		{
			name:  "slack without channel",
			extra: "notify:\n  slack:\n    token: \"xoxb-1\"\n",
			want:  "notify.slack requires both",
		},
		{
			name:  "invalid timezone",
			extra: "",
			replace: [2]string{
				`location_id: "L1"`,
				"location_id: \"L1\"\n  timezone: \"Mars/Olympus\"",
			},
			want: "timezone",
		},
		{
			name:  "unknown backend",
			extra: "state:\n  backend: redis\n",
			want:  "Backend",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			content := baseYAML
			if tc.replace[0] != "" {
				content = strings.Replace(content, tc.replace[0], tc.replace[1], 1)
			}
			content += tc.extra

			_, err := ValidateYAMLContent([]byte(content))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateYAMLContent_StaticStrategyLowercasesMappingKeys(t *testing.T) {
	t.Parallel()

	content := baseYAML + `identity:
  strategy: Static
  mapping:
    "5B10AC8D82E05B22CC7D4EF5": "alice@example.com"
filter_projects: [" OPS ", "", "DEV"]
`
	cfg, err := ValidateYAMLContent([]byte(content))
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Identity.Strategy != StrategyStatic {
		t.Fatalf("expected static strategy, got %q", cfg.Identity.Strategy)
	}
	if cfg.Identity.Mapping["5b10ac8d82e05b22cc7d4ef5"] != "alice@example.com" {
		t.Fatalf("unexpected mapping: %v", cfg.Identity.Mapping)
	}
	if strings.Join(cfg.FilterProjects, ",") != "OPS,DEV" {
		t.Fatalf("unexpected filter projects: %v", cfg.FilterProjects)
	}
}

func TestSquareConfig_Location(t *testing.T) {
	t.Parallel()

	loc, err := SquareConfig{}.Location()
	if err != nil || loc != nil {
		t.Fatalf("expected nil location without timezone, got %v %v", loc, err)
	}
	loc, err = SquareConfig{Timezone: "UTC"}.Location()
	if err != nil || loc == nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC location, got %v %v", loc, err)
	}
}

func TestConfig_SecretsPointAtCredentialFields(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.Tempo.APIToken = "ssm:/tempo"
	for _, field := range cfg.Secrets() {
		if *field == "ssm:/tempo" {
			*field = "resolved"
		}
	}
	if cfg.Tempo.APIToken != "resolved" {
		t.Fatalf("expected secret field to be writable through pointer")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TSQTEST_TEMPO_API_TOKEN", "env-tempo")
	t.Setenv("TSQTEST_SQUARE_ACCESS_TOKEN", "ssm:/temposquare/square")
	t.Setenv("TSQTEST_SQUARE_LOCATION_ID", "L9")
	t.Setenv("TSQTEST_IDENTITY_STRATEGY", "static")
	t.Setenv("TSQTEST_IDENTITY_MAPPING_FILE", "/var/task/identity.yaml")
	t.Setenv("TSQTEST_STATE_BACKEND", "s3")
	t.Setenv("TSQTEST_STATE_S3_BUCKET", "sync-state")

	cfg, err := LoadFromEnvironment("TSQTEST", "")
	if err != nil {
		t.Fatalf("expected environment config to validate: %v", err)
	}
	if cfg.Tempo.APIToken != "env-tempo" || cfg.Square.LocationID != "L9" {
		t.Fatalf("environment values not applied: %+v", cfg)
	}
	if cfg.State.Backend != BackendS3 || cfg.State.S3Key != DefaultS3Key {
		t.Fatalf("unexpected state config: %+v", cfg.State)
	}
}
