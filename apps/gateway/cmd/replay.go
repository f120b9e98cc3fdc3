package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gateway/apps/gateway/internal/config"
	"gateway/apps/gateway/internal/events"
)

const maxReplayLine = 1 << 20

type eventHandler interface {
	OnEvent(ctx context.Context, raw []byte) error
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	processed, failed, err := replay(cmd.Context(), f, a.hooks, logger)
	logger.Info("Replay finished", zap.Int("processed", processed), zap.Int("failed", failed))
	return err
}

// replay feeds every non-empty line of r to handler. Bad lines are skipped
// and counted as failed.
func replay(ctx context.Context, r io.Reader, handler eventHandler, logger *zap.Logger) (processed, failed int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return processed, failed, err
		}

		if err := handler.OnEvent(ctx, raw); err != nil {
			failed++
			level := logger.Error
			if errors.Is(err, events.ErrUnknownEventType) || errors.Is(err, events.ErrInvalidEvent) {
				level = logger.Warn
			}
			level("Failed to replay event", zap.Int("line", line), zap.Error(err))
			continue
		}
		processed++
	}
	if err := scanner.Err(); err != nil {
		return processed, failed, fmt.Errorf("failed to read events: %w", err)
	}
	return processed, failed, nil
}
