package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"temposquare/worklog"
)

const (
	StrategyDirectory = "directory"
	StrategyStatic    = "static"
)

// Resolver maps a worklog author to a Square team member id.
type Resolver interface {
	Resolve(ctx context.Context, w worklog.Worklog) (string, bool)
}

// Directory looks up the email of an external account.
type Directory interface {
	LookupEmail(ctx context.Context, accountID string) (string, error)
}

type Options struct {
	Strategy      string
	Directory     Directory
	StaticMapping map[string]string
	Logger        *slog.Logger
}

// NewResolver builds the resolver for one sync run. The directory cache lives as long as
// the returned resolver.
func NewResolver(options Options, roster *Roster) (Resolver, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(strings.TrimSpace(options.Strategy)) {
	case "", StrategyDirectory:
		if options.Directory == nil {
			return nil, fmt.Errorf("identity strategy %q requires a directory client", StrategyDirectory)
		}
		return NewDirectoryResolver(options.Directory, roster, logger), nil
	case StrategyStatic:
		return NewStaticResolver(options.StaticMapping, roster), nil
	default:
		return nil, fmt.Errorf("unsupported identity strategy %q (valid: directory, static)", options.Strategy)
	}
}

type DirectoryResolver struct {
	directory Directory
	roster    *Roster
	logger    *slog.Logger
	emails    map[string]string
}

func NewDirectoryResolver(directory Directory, roster *Roster, logger *slog.Logger) *DirectoryResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryResolver{
		directory: directory,
		roster:    roster,
		logger:    logger,
		emails:    make(map[string]string),
	}
}

func (r *DirectoryResolver) Resolve(ctx context.Context, w worklog.Worklog) (string, bool) {
	accountID := strings.TrimSpace(w.Author.AccountID)
	name := w.Author.Name()

	email, cached := r.emails[accountID]
	if !cached {
		looked, err := r.directory.LookupEmail(ctx, accountID)
		if err != nil {
			r.logger.Error("email lookup failed", "author", name, "account_id", accountID, "err", err)
			looked = ""
		}
		r.emails[accountID] = looked
		email = looked
	}

	if strings.TrimSpace(email) == "" {
		r.logger.Warn("no email found for tempo user, skipping", "author", name, "account_id", accountID)
		return "", false
	}

	memberID, ok := r.roster.Lookup(email)
	if !ok {
		r.logger.Warn("no square team member with email, skipping", "email", email, "author", name)
		return "", false
	}
	return memberID, true
}

// StaticResolver resolves through a configured account id to email mapping. Misses are
// treated as intentional exclusions and are not logged.
type StaticResolver struct {
	emails map[string]string
	roster *Roster
}

func NewStaticResolver(mapping map[string]string, roster *Roster) *StaticResolver {
	emails := make(map[string]string, len(mapping))
	for accountID, email := range mapping {
		key := normalizeAccountID(accountID)
		if key == "" || strings.TrimSpace(email) == "" {
			continue
		}
		emails[key] = email
	}
	return &StaticResolver{emails: emails, roster: roster}
}

func (r *StaticResolver) Resolve(_ context.Context, w worklog.Worklog) (string, bool) {
	email, ok := r.emails[normalizeAccountID(w.Author.AccountID)]
	if !ok {
		return "", false
	}
	return r.roster.Lookup(email)
}

// viper lowercases map keys, so account ids from config are compared case-insensitively.
func normalizeAccountID(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
