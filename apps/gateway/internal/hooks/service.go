// Package hooks routes classified domain events to the invalidation and
// notification engines.
package hooks

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/events"
	"gateway/apps/gateway/internal/metrics"
)

type Invalidator interface {
	OnEvent(ctx context.Context, ev events.Event) error
}

type Notifier interface {
	OnEvent(ctx context.Context, ev events.Event)
}

// ChainChecker reports whether events of a chain should be handled.
type ChainChecker interface {
	IsSupportedChain(ctx context.Context, chainID string) (bool, error)
}

type Service struct {
	invalidator Invalidator
	notifier    Notifier
	chains      ChainChecker
	timeout     time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewService returns a Service. A positive timeout bounds the processing of
// each event.
func NewService(invalidator Invalidator, notifier Notifier, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		invalidator: invalidator,
		notifier:    notifier,
		timeout:     timeout,
		metrics:     m,
		logger:      logger,
	}
}

// WithChainFilter drops events of chains that chains does not support.
// CHAIN_UPDATE always passes so a newly added chain can be picked up.
func (s *Service) WithChainFilter(chains ChainChecker) *Service {
	s.chains = chains
	return s
}

// OnEvent classifies raw and processes it. Classification errors are
// returned unchanged so transports can tell bad input from failed work.
func (s *Service) OnEvent(ctx context.Context, raw []byte) error {
	ev, err := s.Classify(raw)
	if err != nil {
		return err
	}
	return s.Process(ctx, ev)
}

// Classify decodes raw, counting and logging rejected input.
func (s *Service) Classify(raw []byte) (events.Event, error) {
	ev, err := events.Classify(raw)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, events.ErrUnknownEventType) {
			reason = "unknown_type"
		}
		s.metrics.EventsDropped.WithLabelValues(reason).Inc()
		s.logger.Warn("Dropping event", zap.String("reason", reason), zap.Error(err))
		return events.Event{}, err
	}
	return ev, nil
}

// Process runs cache invalidation and notification concurrently and returns
// the invalidation error once both are done.
func (s *Service) Process(ctx context.Context, ev events.Event) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.metrics.EventsTotal.WithLabelValues(string(ev.Type)).Inc()

	if !s.supported(ctx, ev) {
		s.metrics.EventsDropped.WithLabelValues("unsupported_chain").Inc()
		s.logger.Debug("Dropping event of unsupported chain",
			zap.String("type", string(ev.Type)),
			zap.String("chainId", ev.ChainID))
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.notifier.OnEvent(ctx, ev)
	}()

	err := s.invalidator.OnEvent(ctx, ev)
	wg.Wait()
	return err
}

// supported fails open: a config service outage must not stop invalidation.
func (s *Service) supported(ctx context.Context, ev events.Event) bool {
	if s.chains == nil || ev.Type == events.ChainUpdate {
		return true
	}
	ok, err := s.chains.IsSupportedChain(ctx, ev.ChainID)
	if err != nil {
		s.logger.Warn("Failed to check chain support", zap.String("chainId", ev.ChainID), zap.Error(err))
		return true
	}
	return ok
}
