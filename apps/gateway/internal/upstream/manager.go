package upstream

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// ChainSource resolves chain configuration.
type ChainSource interface {
	GetChain(ctx context.Context, chainID string) (Chain, error)
}

// APIManager hands out one API client per chain. Destroy drops the client of
// a chain so the next Get rebuilds it from fresh chain configuration.
type APIManager[T any] interface {
	Get(ctx context.Context, chainID string) (T, error)
	Destroy(chainID string)
}

type Manager[T any] struct {
	name    string
	build   func(ctx context.Context, chainID string) (T, error)
	release func(T)
	logger  *zap.Logger

	mu         sync.Mutex
	apis       map[string]T
	generation uint64
}

// NewManager returns a Manager that creates clients with build. release, if
// not nil, is called with every client the manager drops.
func NewManager[T any](name string, build func(context.Context, string) (T, error), release func(T), logger *zap.Logger) *Manager[T] {
	return &Manager[T]{
		name:    name,
		build:   build,
		release: release,
		logger:  logger,
		apis:    make(map[string]T),
	}
}

// Get returns the chain's client, building it on first use. A client whose
// build overlapped a Destroy is released and built again, since the chain
// config it read may be stale.
func (m *Manager[T]) Get(ctx context.Context, chainID string) (T, error) {
	for {
		m.mu.Lock()
		api, ok := m.apis[chainID]
		generation := m.generation
		m.mu.Unlock()
		if ok {
			return api, nil
		}

		built, err := m.build(ctx, chainID)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("failed to create %s API for chain %s: %w", m.name, chainID, err)
		}

		m.mu.Lock()
		if existing, ok := m.apis[chainID]; ok {
			m.mu.Unlock()
			m.drop(built)
			return existing, nil
		}
		if m.generation == generation {
			m.apis[chainID] = built
			m.mu.Unlock()
			return built, nil
		}
		m.mu.Unlock()
		m.drop(built)

		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
	}
}

func (m *Manager[T]) Destroy(chainID string) {
	m.mu.Lock()
	api, ok := m.apis[chainID]
	delete(m.apis, chainID)
	m.generation++
	m.mu.Unlock()

	if ok {
		m.drop(api)
		m.logger.Info("Destroyed chain API", zap.String("api", m.name), zap.String("chain_id", chainID))
	}
}

// DestroyAll drops every client, e.g. on shutdown.
func (m *Manager[T]) DestroyAll() {
	m.mu.Lock()
	apis := m.apis
	m.apis = make(map[string]T)
	m.generation++
	m.mu.Unlock()

	for _, api := range apis {
		m.drop(api)
	}
}

func (m *Manager[T]) drop(api T) {
	if m.release != nil {
		m.release(api)
	}
}

func transactionBaseURL(chain Chain) string {
	if chain.VpcTransactionService != "" {
		return chain.VpcTransactionService
	}
	return chain.TransactionService
}

func NewTransactionServiceManager(chains ChainSource, client *http.Client, logger *zap.Logger) *Manager[TransactionService] {
	return NewManager("transaction", func(ctx context.Context, chainID string) (TransactionService, error) {
		chain, err := chains.GetChain(ctx, chainID)
		if err != nil {
			return nil, err
		}
		return NewTransactionClient(transactionBaseURL(chain), client), nil
	}, nil, logger)
}

// NewBalancesServiceManager manages balances clients. Balances are served by
// the transaction service of the chain but are tracked separately so they can
// be cleared on their own.
func NewBalancesServiceManager(chains ChainSource, client *http.Client, logger *zap.Logger) *Manager[BalancesService] {
	return NewManager("balances", func(ctx context.Context, chainID string) (BalancesService, error) {
		chain, err := chains.GetChain(ctx, chainID)
		if err != nil {
			return nil, err
		}
		return NewTransactionClient(transactionBaseURL(chain), client), nil
	}, nil, logger)
}

func NewStakingServiceManager(chains ChainSource, mainnetURL, testnetURL string, client *http.Client, logger *zap.Logger) *Manager[StakingService] {
	return NewManager("staking", func(ctx context.Context, chainID string) (StakingService, error) {
		chain, err := chains.GetChain(ctx, chainID)
		if err != nil {
			return nil, err
		}
		if chain.IsTestnet {
			return NewStakingClient(testnetURL, client), nil
		}
		return NewStakingClient(mainnetURL, client), nil
	}, nil, logger)
}
