package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"temposquare/identity"
	"temposquare/internal/overlap"
	"temposquare/internal/timeutil"
	"temposquare/square"
	"temposquare/state"
	"temposquare/tempo"
	"temposquare/timecard"
	"temposquare/worklog"
)

// ErrRunHadErrors is returned by callers that need a non-zero exit when any worklog failed.
var ErrRunHadErrors = errors.New("sync finished with errors")

const updatedFromLayout = "2006-01-02T15:04:05Z"

// persistTimeout bounds saving the state after the run context is done.
const persistTimeout = 30 * time.Second

type WorklogSource interface {
	FetchWorklogs(ctx context.Context, query tempo.Query) ([]worklog.Worklog, error)
}

type Payroll interface {
	ListTeamMembers(ctx context.Context) ([]square.TeamMember, error)
	CreateTimecard(ctx context.Context, timecard square.Timecard) (square.Timecard, error)
}

type Options struct {
	FilterProjects []string
	Strategy       string
	StaticMapping  map[string]string
	Timecard       timecard.Options
}

type RunOptions struct {
	From   *time.Time
	To     *time.Time
	DryRun bool
}

type Service struct {
	Source    WorklogSource
	Payroll   Payroll
	Directory identity.Directory
	States    state.Store
	Options   Options
	Now       func() time.Time
	Logger    *slog.Logger
}

// Run performs one sync pass. Per-worklog failures are counted in the summary; only
// failures that make the whole pass meaningless are returned as errors. When ctx ends
// mid-pass the remaining worklogs are left alone, the synced ids are still saved and
// the summary is returned with an error wrapping ctx.Err().
func (s *Service) Run(ctx context.Context, run RunOptions) (*Summary, error) {
	logger := s.logger()
	now := s.now()

	from, to, err := timeutil.Window(run.From, run.To, now)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		DryRun:    run.DryRun,
		From:      from,
		To:        to,
		StartedAt: now,
	}

	current, err := s.States.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}
	next := current.Clone()

	roster, err := s.buildRoster(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded square roster", "members", roster.Len())

	resolver, err := identity.NewResolver(identity.Options{
		Strategy:      s.Options.Strategy,
		Directory:     s.Directory,
		StaticMapping: s.Options.StaticMapping,
		Logger:        logger,
	}, roster)
	if err != nil {
		return nil, err
	}

	fetched, err := s.fetch(ctx, from, to, current.LastSync)
	if err != nil {
		return nil, err
	}
	summary.Fetched = len(fetched)
	logger.Info("fetched worklogs",
		"count", len(fetched),
		"from", timeutil.FormatDay(from),
		"to", timeutil.FormatDay(to),
	)

	accepted := overlap.NewTracker()
	seen := make(map[worklog.ID]struct{}, len(fetched))
	for _, item := range fetched {
		if ctx.Err() != nil {
			summary.Interrupted = true
			logger.Warn("sync interrupted, remaining worklogs are left for the next run", "err", ctx.Err())
			break
		}

		if item.ID.String() == "" {
			outcome := newOutcome(item)
			outcome.Status = StatusError
			outcome.Err = fmt.Errorf("%w: missing worklog id", timecard.ErrMalformedWorklog)
			logger.Error("cannot sync worklog without id", "author", outcome.Author, "start_date", item.StartDate)
			summary.Errors++
			summary.Outcomes = append(summary.Outcomes, outcome)
			continue
		}

		if _, dup := seen[item.ID]; dup {
			summary.Duplicates++
			logger.Debug("dropping duplicate worklog", "worklog_id", item.ID.String())
			continue
		}
		seen[item.ID] = struct{}{}

		if current.IsSynced(item.ID) {
			summary.AlreadySynced++
			continue
		}

		outcome := s.process(ctx, item, resolver, accepted, run.DryRun, logger)
		switch outcome.Status {
		case StatusCreated:
			summary.Created++
			next.MarkSynced(item.ID)
		case StatusWouldCreate:
			summary.Created++
		case StatusSkipped:
			summary.Skipped++
		case StatusError:
			summary.Errors++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	if !run.DryRun {
		// The watermark only advances after a full pass.
		if !summary.Interrupted {
			finished := s.now().UTC()
			next.LastSync = &finished
		}
		// Timecards already created must be recorded even when ctx is done.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		err := s.States.Save(saveCtx, next)
		cancel()
		if err != nil {
			return summary, fmt.Errorf("save sync state: %w", err)
		}
	}
	summary.FinishedAt = s.now()

	logger.Info("sync finished",
		"created", summary.Created,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"already_synced", summary.AlreadySynced,
		"dry_run", summary.DryRun,
	)
	if summary.Interrupted {
		return summary, fmt.Errorf("sync interrupted: %w", ctx.Err())
	}
	return summary, nil
}

func (s *Service) buildRoster(ctx context.Context) (*identity.Roster, error) {
	members, err := s.Payroll.ListTeamMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list square team members: %w", err)
	}

	roster := identity.NewRoster()
	for _, member := range members {
		if member.EmailAddress == "" {
			continue
		}
		roster.Add(member.EmailAddress, member.ID)
	}
	return roster, nil
}

func (s *Service) fetch(ctx context.Context, from, to time.Time, lastSync *time.Time) ([]worklog.Worklog, error) {
	var updatedFrom *time.Time
	if lastSync != nil {
		// Tempo accepts second precision only.
		truncated, err := time.Parse(updatedFromLayout, lastSync.UTC().Format(updatedFromLayout))
		if err != nil {
			return nil, fmt.Errorf("format updatedFrom: %w", err)
		}
		updatedFrom = &truncated
	}

	projects := s.Options.FilterProjects
	if len(projects) == 0 {
		projects = []string{""}
	}

	out := make([]worklog.Worklog, 0, 64)
	for _, project := range projects {
		items, err := s.Source.FetchWorklogs(ctx, tempo.Query{
			From:        from,
			To:          to,
			Project:     project,
			UpdatedFrom: updatedFrom,
		})
		if err != nil {
			if project == "" {
				return nil, fmt.Errorf("fetch tempo worklogs: %w", err)
			}
			return nil, fmt.Errorf("fetch tempo worklogs for project %s: %w", project, err)
		}
		out = append(out, items...)
	}
	return out, nil
}

func (s *Service) process(ctx context.Context, item worklog.Worklog, resolver identity.Resolver, accepted *overlap.Tracker, dryRun bool, logger *slog.Logger) Outcome {
	outcome := newOutcome(item)

	memberID, ok := resolver.Resolve(ctx, item)
	if !ok {
		outcome.Status = StatusSkipped
		return outcome
	}
	outcome.TeamMemberID = memberID

	start, end, err := timecard.Interval(item, s.Options.Timecard.Location)
	if err != nil {
		logger.Error("cannot build timecard", "worklog_id", item.ID.String(), "err", err)
		outcome.Status = StatusError
		outcome.Err = err
		return outcome
	}
	card := timecard.FromInterval(start, end, memberID, s.Options.Timecard)

	// Overlaps are reported but still submitted.
	interval := overlap.Interval{Start: start, End: end, Ref: item.ID.String()}
	if other, ok := accepted.Check(memberID, interval); ok {
		logger.Warn("timecard overlaps another worklog of the same team member",
			"worklog_id", item.ID.String(),
			"other_worklog_id", other.Ref,
			"author", outcome.Author,
		)
	}

	if dryRun {
		accepted.Add(memberID, interval)
		logger.Info(fmt.Sprintf("[dry run] would create timecard: %s - %.2fh on %s", outcome.Author, outcome.Hours, item.StartDate),
			"worklog_id", item.ID.String(),
			"team_member_id", memberID,
			"start_at", card.StartAt,
			"end_at", card.EndAt,
		)
		outcome.Status = StatusWouldCreate
		return outcome
	}

	created, err := s.Payroll.CreateTimecard(ctx, card)
	if err != nil {
		logger.Error("failed to create timecard", "worklog_id", item.ID.String(), "author", outcome.Author, "err", err)
		outcome.Status = StatusError
		outcome.Err = err
		return outcome
	}

	accepted.Add(memberID, interval)
	outcome.Status = StatusCreated
	outcome.TimecardID = created.ID
	logger.Info(fmt.Sprintf("Created timecard %s: %s - %.2fh on %s", created.ID, outcome.Author, outcome.Hours, item.StartDate),
		"worklog_id", item.ID.String(),
	)
	return outcome
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
