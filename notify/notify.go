package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"temposquare/internal/timeutil"
	"temposquare/syncer"
)

// Notifier delivers a run summary to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, subject, body string) error
}

type Dispatcher struct {
	Notifiers    []Notifier
	OnlyOnErrors bool
	Logger       *slog.Logger
}

// Send delivers the summary to every notifier. A failing notifier does not stop the others.
func (d *Dispatcher) Send(ctx context.Context, summary *syncer.Summary) error {
	if d == nil || len(d.Notifiers) == 0 || summary == nil {
		return nil
	}
	if d.OnlyOnErrors && !summary.Failed() {
		return nil
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	subject, body := Render(summary)
	var errs []error
	for _, notifier := range d.Notifiers {
		if err := notifier.Notify(ctx, subject, body); err != nil {
			logger.Error("notification failed", "notifier", notifier.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		logger.Debug("notification sent", "notifier", notifier.Name())
	}
	return errors.Join(errs...)
}

// Render builds the subject line and plain-text body for a summary.
func Render(summary *syncer.Summary) (string, string) {
	status := "completed"
	if summary.Failed() {
		status = "completed with errors"
	}
	prefix := ""
	if summary.DryRun {
		prefix = "[dry run] "
	}
	subject := fmt.Sprintf("%sTempo -> Square sync %s", prefix, status)

	var b strings.Builder
	fmt.Fprintf(&b, "Window: %s to %s\n", timeutil.FormatDay(summary.From), timeutil.FormatDay(summary.To))
	fmt.Fprintf(&b, "Fetched: %d\n", summary.Fetched)
	fmt.Fprintf(&b, "Created: %d\n", summary.Created)
	fmt.Fprintf(&b, "Skipped: %d\n", summary.Skipped)
	fmt.Fprintf(&b, "Errors: %d\n", summary.Errors)
	fmt.Fprintf(&b, "Already synced: %d\n", summary.AlreadySynced)
	if summary.Interrupted {
		b.WriteString("Interrupted before all worklogs were processed; the next run continues.\n")
	}

	failures := 0
	for _, outcome := range summary.Outcomes {
		if outcome.Status != syncer.StatusError {
			continue
		}
		if failures == 0 {
			b.WriteString("\nFailures:\n")
		}
		failures++
		fmt.Fprintf(&b, "- worklog %s (%s, %s): %s\n", outcome.WorklogID, outcome.Author, outcome.StartDate, outcome.Message())
	}
	return subject, b.String()
}
