package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"temposquare/config"
	"temposquare/identity"
	"temposquare/internal/timeutil"
	"temposquare/jira"
	"temposquare/notify"
	"temposquare/secrets"
	"temposquare/square"
	"temposquare/state"
	"temposquare/storage"
	"temposquare/syncer"
	"temposquare/tempo"
	"temposquare/timecard"
)

// App holds everything one sync invocation needs. Close releases the state backend.
type App struct {
	Config   *config.Config
	Service  *syncer.Service
	Payroll  *square.Client
	Stores   *Stores
	Notifier *notify.Dispatcher
	Logger   *slog.Logger
}

// Stores is the configured state backend. History is nil unless the backend is sqlite.
type Stores struct {
	State   state.Store
	History *storage.SQLiteStore
	Where   string
}

func (s *Stores) Close() error {
	if s == nil || s.History == nil {
		return nil
	}
	return s.History.Close()
}

// awsSession loads the default AWS config once, on first use.
type awsSession struct {
	cfg    *aws.Config
	loaded bool
}

func (a *awsSession) get(ctx context.Context) (aws.Config, error) {
	if a.loaded {
		return *a.cfg, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	a.cfg = &cfg
	a.loaded = true
	return cfg, nil
}

// New resolves secrets and builds clients, store, and notifiers from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session := &awsSession{}

	if err := resolveSecrets(ctx, cfg, session); err != nil {
		return nil, err
	}

	source, err := tempo.NewClient(tempo.ClientConfig{
		BaseURL:  cfg.Tempo.BaseURL,
		APIToken: cfg.Tempo.APIToken,
	})
	if err != nil {
		return nil, fmt.Errorf("create tempo client: %w", err)
	}

	payroll, err := NewSquareClient(cfg)
	if err != nil {
		return nil, err
	}

	var directory identity.Directory
	if cfg.Identity.Strategy == config.StrategyDirectory {
		client, err := jira.NewClient(jira.ClientConfig{
			BaseURL:  cfg.Jira.BaseURL,
			Email:    cfg.Jira.Email,
			APIToken: cfg.Jira.APIToken,
		})
		if err != nil {
			return nil, fmt.Errorf("create jira client: %w", err)
		}
		directory = client
	}

	mapping, err := staticMapping(cfg.Identity)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Square.Location()
	if err != nil {
		return nil, err
	}

	stores, err := openStores(ctx, cfg.State, session)
	if err != nil {
		return nil, err
	}

	notifier, err := newDispatcher(ctx, cfg.Notify, session, logger)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	service := &syncer.Service{
		Source:    source,
		Payroll:   payroll,
		Directory: directory,
		States:    stores.State,
		Options: syncer.Options{
			FilterProjects: cfg.FilterProjects,
			Strategy:       cfg.Identity.Strategy,
			StaticMapping:  mapping,
			Timecard: timecard.Options{
				LocationID: cfg.Square.LocationID,
				Location:   loc,
				JobTitle:   cfg.Square.JobTitle,
				HourlyRate: cfg.Square.HourlyRate,
				Currency:   cfg.Square.Currency,
			},
		},
		Logger: logger,
	}

	return &App{
		Config:   cfg,
		Service:  service,
		Payroll:  payroll,
		Stores:   stores,
		Notifier: notifier,
		Logger:   logger,
	}, nil
}

func (a *App) Close() error {
	return a.Stores.Close()
}

const reportTimeout = 30 * time.Second

// Sync runs one pass, records it in the run history when available and sends notifications.
// Notification and history failures are logged, not returned.
func (a *App) Sync(ctx context.Context, run syncer.RunOptions) (*syncer.Summary, error) {
	summary, err := a.Service.Run(ctx, run)
	if summary == nil {
		return nil, err
	}

	// A run cut short by its deadline is still recorded and reported.
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	if a.Stores.History != nil {
		if _, recordErr := a.Stores.History.RecordRun(reportCtx, RunRecord(summary)); recordErr != nil {
			a.Logger.Error("failed to record sync run", "err", recordErr)
		}
	}
	if notifyErr := a.Notifier.Send(reportCtx, summary); notifyErr != nil {
		a.Logger.Error("failed to send notifications", "err", notifyErr)
	}
	return summary, err
}

// RunRecord converts a summary into a history row.
func RunRecord(summary *syncer.Summary) storage.RunRecord {
	return storage.RunRecord{
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		From:       timeutil.FormatDay(summary.From),
		To:         timeutil.FormatDay(summary.To),
		DryRun:     summary.DryRun,
		Fetched:    summary.Fetched,
		Created:    summary.Created,
		Skipped:    summary.Skipped,
		Errors:     summary.Errors,
	}
}

func NewSquareClient(cfg *config.Config) (*square.Client, error) {
	client, err := square.NewClient(square.ClientConfig{
		AccessToken: cfg.Square.AccessToken,
		Environment: cfg.Square.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("create square client: %w", err)
	}
	return client, nil
}

// OpenStores opens the configured state backend without building any API clients.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	return openStores(ctx, cfg.State, &awsSession{})
}

// ResolveSecrets rewrites "ssm:" references in cfg. AWS is only contacted when a reference exists.
func ResolveSecrets(ctx context.Context, cfg *config.Config) error {
	return resolveSecrets(ctx, cfg, &awsSession{})
}

func resolveSecrets(ctx context.Context, cfg *config.Config, session *awsSession) error {
	fields := cfg.Secrets()
	if !secrets.HasReferences(fields) {
		return nil
	}
	awsCfg, err := session.get(ctx)
	if err != nil {
		return err
	}
	if err := secrets.NewResolver(ssm.NewFromConfig(awsCfg)).ResolveAll(ctx, fields); err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}
	return nil
}

func openStores(ctx context.Context, cfg config.StateConfig, session *awsSession) (*Stores, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Stores{State: db, History: db, Where: "sqlite:" + cfg.Path}, nil
	case config.BackendS3:
		awsCfg, err := session.get(ctx)
		if err != nil {
			return nil, err
		}
		key := strings.TrimSpace(cfg.S3Key)
		if key == "" {
			key = config.DefaultS3Key
		}
		store, err := state.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, key)
		if err != nil {
			return nil, err
		}
		return &Stores{State: store, Where: fmt.Sprintf("s3://%s/%s", cfg.S3Bucket, key)}, nil
	case config.BackendFile, "":
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			path = state.DefaultPath
		}
		return &Stores{State: state.NewFileStore(path), Where: path}, nil
	default:
		return nil, fmt.Errorf("unsupported state backend %q", cfg.Backend)
	}
}

func staticMapping(cfg config.IdentityConfig) (map[string]string, error) {
	mapping := make(map[string]string, len(cfg.Mapping))
	if path := strings.TrimSpace(cfg.MappingFile); path != "" {
		fromFile, err := identity.LoadMappingFile(path)
		if err != nil {
			return nil, err
		}
		for accountID, email := range fromFile {
			mapping[accountID] = email
		}
	}
	// Inline entries override the file.
	for accountID, email := range cfg.Mapping {
		mapping[accountID] = email
	}
	return mapping, nil
}

func newDispatcher(ctx context.Context, cfg config.NotifyConfig, session *awsSession, logger *slog.Logger) (*notify.Dispatcher, error) {
	dispatcher := &notify.Dispatcher{OnlyOnErrors: cfg.OnlyOnErrors, Logger: logger}

	if cfg.Slack.Enabled() {
		dispatcher.Notifiers = append(dispatcher.Notifiers, notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel))
	}
	if cfg.Email.Enabled() {
		awsCfg, err := session.get(ctx)
		if err != nil {
			return nil, err
		}
		dispatcher.Notifiers = append(dispatcher.Notifiers, notify.NewEmailNotifier(ses.NewFromConfig(awsCfg), cfg.Email.From, cfg.Email.To))
	}
	return dispatcher, nil
}

// ErrNoHistory is returned when run history is requested from a backend that does not keep it.
var ErrNoHistory = errors.New("run history requires state.backend sqlite")
