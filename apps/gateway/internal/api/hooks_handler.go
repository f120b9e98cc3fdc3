package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/events"
)

const maxEventSize = 1 << 20

// EventRouter classifies and processes domain events.
type EventRouter interface {
	Classify(raw []byte) (events.Event, error)
	Process(ctx context.Context, ev events.Event) error
}

// HooksHandler accepts domain events pushed over HTTP.
type HooksHandler struct {
	router EventRouter
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewHooksHandler(router EventRouter, logger *zap.Logger) *HooksHandler {
	return &HooksHandler{router: router, logger: logger}
}

// PostEvent handles POST /api/v1/hooks/events. Valid events are acknowledged
// with 202 and processed after the response is written.
func (h *HooksHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxEventSize))
	if err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Failed to read request body")
		return
	}

	ev, err := h.router.Classify(raw)
	if err != nil {
		code := "invalid_event"
		if errors.Is(err, events.ErrUnknownEventType) {
			code = "unknown_event_type"
		}
		writeErrorResponse(w, h.logger, http.StatusBadRequest, code, err.Error())
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.router.Process(context.WithoutCancel(r.Context()), ev); err != nil {
			h.logger.Error("Error processing event",
				zap.String("type", string(ev.Type)),
				zap.String("chainId", ev.ChainID),
				zap.Error(err))
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

// Wait blocks until every accepted event has been processed.
func (h *HooksHandler) Wait() {
	h.wg.Wait()
}
