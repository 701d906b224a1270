package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyTempoAPIToken       = "tempo.api_token"
	KeyTempoBaseURL        = "tempo.base_url"
	KeyJiraBaseURL         = "jira.base_url"
	KeyJiraEmail           = "jira.email"
	KeyJiraAPIToken        = "jira.api_token"
	KeySquareAccessToken   = "square.access_token"
	KeySquareEnvironment   = "square.environment"
	KeySquareLocationID    = "square.location_id"
	KeySquareTimezone      = "square.timezone"
	KeySquareJobTitle      = "square.job_title"
	KeySquareHourlyRate    = "square.hourly_rate"
	KeySquareCurrency      = "square.currency"
	KeyFilterProjects      = "filter_projects"
	KeyIdentityStrategy    = "identity.strategy"
	KeyIdentityMapping     = "identity.mapping"
	KeyIdentityMappingFile = "identity.mapping_file"
	KeyStateBackend        = "state.backend"
	KeyStatePath           = "state.path"
	KeyStateS3Bucket       = "state.s3_bucket"
	KeyStateS3Key          = "state.s3_key"
	KeyNotifyOnlyOnErrors  = "notify.only_on_errors"
	KeyNotifySlackToken    = "notify.slack.token"
	KeyNotifySlackChannel  = "notify.slack.channel"
	KeyNotifyEmailFrom     = "notify.email.from"
	KeyNotifyEmailTo       = "notify.email.to"

	StrategyDirectory = "directory"
	StrategyStatic    = "static"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"

	DefaultStatePath = "./.sync_state.json"
	DefaultS3Key     = "temposquare/sync_state.json"
)

type Config struct {
	Tempo          TempoConfig    `mapstructure:"tempo" validate:"required"`
	Jira           JiraConfig     `mapstructure:"jira"`
	Square         SquareConfig   `mapstructure:"square" validate:"required"`
	FilterProjects []string       `mapstructure:"filter_projects"`
	Identity       IdentityConfig `mapstructure:"identity"`
	State          StateConfig    `mapstructure:"state"`
	Notify         NotifyConfig   `mapstructure:"notify"`
}

type TempoConfig struct {
	APIToken string `mapstructure:"api_token" validate:"required"`
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
}

type JiraConfig struct {
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
	Email    string `mapstructure:"email"`
	APIToken string `mapstructure:"api_token"`
}

type SquareConfig struct {
	AccessToken string `mapstructure:"access_token" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,oneof=sandbox production"`
	LocationID  string `mapstructure:"location_id" validate:"required"`
	Timezone    string `mapstructure:"timezone"`
	JobTitle    string `mapstructure:"job_title"`
	// HourlyRate is in the currency's minor unit (cents for USD).
	HourlyRate int64  `mapstructure:"hourly_rate" validate:"gte=0"`
	Currency   string `mapstructure:"currency" validate:"omitempty,len=3"`
}

// Location returns the configured timezone, or nil when timestamps stay naive.
func (c SquareConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load square timezone %q: %w", name, err)
	}
	return loc, nil
}

type IdentityConfig struct {
	Strategy string `mapstructure:"strategy" validate:"required,oneof=directory static"`
	// Mapping keys are lowercased by viper.
	Mapping     map[string]string `mapstructure:"mapping"`
	MappingFile string            `mapstructure:"mapping_file"`
}

type StateConfig struct {
	Backend  string `mapstructure:"backend" validate:"required,oneof=file sqlite s3"`
	Path     string `mapstructure:"path"`
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Key    string `mapstructure:"s3_key"`
}

type NotifyConfig struct {
	OnlyOnErrors bool        `mapstructure:"only_on_errors"`
	Slack        SlackConfig `mapstructure:"slack"`
	Email        EmailConfig `mapstructure:"email"`
}

type SlackConfig struct {
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"`
}

func (c SlackConfig) Enabled() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.Channel) != ""
}

type EmailConfig struct {
	From string   `mapstructure:"from" validate:"omitempty,email"`
	To   []string `mapstructure:"to" validate:"omitempty,dive,email"`
}

func (c EmailConfig) Enabled() bool {
	return strings.TrimSpace(c.From) != "" && len(c.To) > 0
}

// Secrets returns the credential fields that may hold "ssm:" references.
func (c *Config) Secrets() []*string {
	return []*string{
		&c.Tempo.APIToken,
		&c.Jira.APIToken,
		&c.Jira.Email,
		&c.Square.AccessToken,
		&c.Notify.Slack.Token,
	}
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# temposquare configuration
tempo:
  api_token: ""
  base_url: "https://api.tempo.io/4"

jira:
  base_url: "https://your-domain.atlassian.net"
  email: ""
  api_token: ""

square:
  access_token: ""
  environment: "sandbox"
  location_id: ""
  # timezone: "America/New_York"
  # job_title: "Consultant"
  # hourly_rate: 0
  currency: "USD"

filter_projects: []

identity:
  strategy: "directory"
  mapping: {}
  # mapping_file: "./identity.yaml"

state:
  backend: "file"
  path: "./.sync_state.json"

notify:
  only_on_errors: true
`
}

// LoadFromEnvironment builds a config from defaults, an optional YAML file and
// environment variables carrying prefix. Used where no CLI flags exist.
func LoadFromEnvironment(prefix, path string) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetEnvPrefix(prefix)
	local.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	local.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		local.SetConfigFile(path)
		if err := local.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	return loadAndValidateFromViper(local)
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	normalize(&cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateIdentity(cfg); err != nil {
		return nil, err
	}
	if err := validateState(cfg.State); err != nil {
		return nil, err
	}
	if err := validateNotify(cfg.Notify); err != nil {
		return nil, err
	}
	if _, err := cfg.Square.Location(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyTempoAPIToken, "")
	v.SetDefault(KeyTempoBaseURL, "https://api.tempo.io/4")
	v.SetDefault(KeyJiraBaseURL, "")
	v.SetDefault(KeyJiraEmail, "")
	v.SetDefault(KeyJiraAPIToken, "")
	v.SetDefault(KeySquareAccessToken, "")
	v.SetDefault(KeySquareEnvironment, "sandbox")
	v.SetDefault(KeySquareLocationID, "")
	v.SetDefault(KeySquareTimezone, "")
	v.SetDefault(KeySquareJobTitle, "")
	v.SetDefault(KeySquareHourlyRate, 0)
	v.SetDefault(KeySquareCurrency, "USD")
	v.SetDefault(KeyFilterProjects, []string{})
	v.SetDefault(KeyIdentityStrategy, StrategyDirectory)
	v.SetDefault(KeyIdentityMapping, map[string]string{})
	v.SetDefault(KeyIdentityMappingFile, "")
	v.SetDefault(KeyStateBackend, BackendFile)
	v.SetDefault(KeyStatePath, DefaultStatePath)
	v.SetDefault(KeyStateS3Bucket, "")
	v.SetDefault(KeyStateS3Key, DefaultS3Key)
	v.SetDefault(KeyNotifyOnlyOnErrors, true)
	v.SetDefault(KeyNotifySlackToken, "")
	v.SetDefault(KeyNotifySlackChannel, "")
	v.SetDefault(KeyNotifyEmailFrom, "")
	v.SetDefault(KeyNotifyEmailTo, []string{})
}

func normalize(cfg *Config) {
	cfg.Square.Environment = strings.ToLower(strings.TrimSpace(cfg.Square.Environment))
	cfg.Square.Currency = strings.ToUpper(strings.TrimSpace(cfg.Square.Currency))
	cfg.Identity.Strategy = strings.ToLower(strings.TrimSpace(cfg.Identity.Strategy))
	cfg.State.Backend = strings.ToLower(strings.TrimSpace(cfg.State.Backend))

	projects := make([]string, 0, len(cfg.FilterProjects))
	for _, project := range cfg.FilterProjects {
		if trimmed := strings.TrimSpace(project); trimmed != "" {
			projects = append(projects, trimmed)
		}
	}
	cfg.FilterProjects = projects
}

func validateIdentity(cfg Config) error {
	switch cfg.Identity.Strategy {
	case StrategyDirectory:
		if strings.TrimSpace(cfg.Jira.BaseURL) == "" || strings.TrimSpace(cfg.Jira.Email) == "" || strings.TrimSpace(cfg.Jira.APIToken) == "" {
			return fmt.Errorf("validation failed: identity.strategy %q requires jira.base_url, jira.email and jira.api_token", StrategyDirectory)
		}
	case StrategyStatic:
		if len(cfg.Identity.Mapping) == 0 && strings.TrimSpace(cfg.Identity.MappingFile) == "" {
			return fmt.Errorf("validation failed: identity.strategy %q requires identity.mapping or identity.mapping_file", StrategyStatic)
		}
	}
	return nil
}

func validateState(cfg StateConfig) error {
	switch cfg.Backend {
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(cfg.Path) == "" {
			return fmt.Errorf("validation failed: state.path is required for backend %q", cfg.Backend)
		}
	case BackendS3:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return fmt.Errorf("validation failed: state.s3_bucket is required for backend %q", BackendS3)
		}
	}
	return nil
}

func validateNotify(cfg NotifyConfig) error {
	slackToken := strings.TrimSpace(cfg.Slack.Token) != ""
	slackChannel := strings.TrimSpace(cfg.Slack.Channel) != ""
	if slackToken != slackChannel {
		return fmt.Errorf("validation failed: notify.slack requires both token and channel")
	}
	emailFrom := strings.TrimSpace(cfg.Email.From) != ""
	if emailFrom != (len(cfg.Email.To) > 0) {
		return fmt.Errorf("validation failed: notify.email requires both from and to")
	}
	return nil
}
