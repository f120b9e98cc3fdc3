package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gateway/apps/gateway/internal/events"
)

type recordingHandler struct {
	seen []string
}

func (h *recordingHandler) OnEvent(_ context.Context, raw []byte) error {
	h.seen = append(h.seen, string(raw))
	if strings.Contains(string(raw), "BAD") {
		return events.ErrUnknownEventType
	}
	if strings.Contains(string(raw), "FAIL") {
		return errors.New("redis down")
	}
	return nil
}

func TestReplay(t *testing.T) {
	input := `{"type":"CHAIN_UPDATE","chainId":"1"}

{"type":"BAD","chainId":"1"}
{"type":"SAFE_APPS_UPDATE","chainId":"FAIL"}
  {"type":"SAFE_APPS_UPDATE","chainId":"1"}  
`
	h := &recordingHandler{}

	processed, failed, err := replay(context.Background(), strings.NewReader(input), h, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, failed)
	assert.Len(t, h.seen, 4)
	assert.Equal(t, `{"type":"SAFE_APPS_UPDATE","chainId":"1"}`, h.seen[3])
}

func TestReplayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := replay(ctx, strings.NewReader(`{"type":"CHAIN_UPDATE","chainId":"1"}`), &recordingHandler{}, zap.NewNop())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("loud")
	assert.Error(t, err)

	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
