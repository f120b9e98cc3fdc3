// Package consumer feeds domain events from message brokers into the
// event router.
package consumer

import (
	"context"
	"errors"

	"gateway/apps/gateway/internal/events"
)

// Handler processes one raw event.
type Handler interface {
	OnEvent(ctx context.Context, raw []byte) error
}

// isBadInput reports whether err means the message can never be processed.
func isBadInput(err error) bool {
	return errors.Is(err, events.ErrUnknownEventType) || errors.Is(err, events.ErrInvalidEvent)
}
