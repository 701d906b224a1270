package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"temposquare/config"
	"temposquare/internal/app"
	"temposquare/internal/timeutil"
	"temposquare/syncer"
)

const (
	envPrefix     = "TEMPOSQUARE"
	configFileEnv = "TEMPOSQUARE_CONFIG_FILE"
)

// SyncEvent is the optional payload of a scheduled or manual invocation. EventBridge
// scheduled events carry none of these fields and run the default window.
type SyncEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	DryRun bool   `json:"dryRun"`
}

type SyncResult struct {
	From          string `json:"from"`
	To            string `json:"to"`
	DryRun        bool   `json:"dryRun"`
	Fetched       int    `json:"fetched"`
	Created       int    `json:"created"`
	Skipped       int    `json:"skipped"`
	Errors        int    `json:"errors"`
	AlreadySynced int    `json:"alreadySynced"`
}

type handler struct {
	loadConfig func() (*config.Config, error)
	logger     *slog.Logger
}

func (h *handler) Handle(ctx context.Context, raw json.RawMessage) (*SyncResult, error) {
	event, err := parseEvent(raw)
	if err != nil {
		return nil, err
	}
	run, err := event.runOptions()
	if err != nil {
		return nil, err
	}

	cfg, err := h.loadConfig()
	if err != nil {
		return nil, err
	}

	application, err := app.New(ctx, cfg, h.logger)
	if err != nil {
		return nil, err
	}
	defer application.Close()

	summary, err := application.Sync(ctx, run)
	if err != nil {
		return nil, err
	}

	result := resultFromSummary(summary)
	if summary.Failed() {
		// The invocation is reported as failed when any worklog failed.
		return result, fmt.Errorf("%w: %d worklog(s) failed", syncer.ErrRunHadErrors, summary.Errors)
	}
	return result, nil
}

func parseEvent(raw json.RawMessage) (SyncEvent, error) {
	var event SyncEvent
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return event, nil
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return SyncEvent{}, fmt.Errorf("decode sync event: %w", err)
	}
	return event, nil
}

func (e SyncEvent) runOptions() (syncer.RunOptions, error) {
	run := syncer.RunOptions{DryRun: e.DryRun}
	if strings.TrimSpace(e.From) != "" {
		day, err := timeutil.ParseDay(e.From)
		if err != nil {
			return syncer.RunOptions{}, err
		}
		run.From = &day
	}
	if strings.TrimSpace(e.To) != "" {
		day, err := timeutil.ParseDay(e.To)
		if err != nil {
			return syncer.RunOptions{}, err
		}
		run.To = &day
	}
	return run, nil
}

func resultFromSummary(summary *syncer.Summary) *SyncResult {
	return &SyncResult{
		From:          summary.From.Format(timeutil.DayLayout),
		To:            summary.To.Format(timeutil.DayLayout),
		DryRun:        summary.DryRun,
		Fetched:       summary.Fetched,
		Created:       summary.Created,
		Skipped:       summary.Skipped,
		Errors:        summary.Errors,
		AlreadySynced: summary.AlreadySynced,
	}
}

func durationSince(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
