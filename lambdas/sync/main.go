package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"temposquare/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	h := &handler{
		loadConfig: func() (*config.Config, error) {
			return config.LoadFromEnvironment(envPrefix, os.Getenv(configFileEnv))
		},
		logger: logger,
	}

	lambda.Start(func(ctx context.Context, raw json.RawMessage) (*SyncResult, error) {
		started := time.Now()
		result, err := h.Handle(ctx, raw)
		if err != nil {
			logger.Error("sync invocation failed", "err", err, "duration", durationSince(started))
		} else {
			logger.Info("sync invocation finished", "duration", durationSince(started))
		}
		return result, err
	})
}
