// Package invalidation maps domain events to the cache entries they make
// stale and clears them.
package invalidation

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gateway/apps/gateway/internal/events"
	"gateway/apps/gateway/internal/metrics"
)

type SafeCache interface {
	ClearSafe(ctx context.Context, chainID, address string) error
	ClearIsSafe(ctx context.Context, chainID, address string) error
	ClearMultisigTransactions(ctx context.Context, chainID, safe string) error
	ClearMultisigTransaction(ctx context.Context, chainID, safeTxHash string) error
	ClearAllExecutedTransactions(ctx context.Context, chainID, safe string) error
	ClearModuleTransactions(ctx context.Context, chainID, safe string) error
	ClearTransfers(ctx context.Context, chainID, safe string) error
	ClearIncomingTransfers(ctx context.Context, chainID, safe string) error
	ClearAPI(chainID string)
}

type BalancesCache interface {
	ClearBalances(ctx context.Context, chainID, safe string) error
	ClearAPI(chainID string)
}

type CollectiblesCache interface {
	ClearCollectibles(ctx context.Context, chainID, safe string) error
}

type MessagesCache interface {
	ClearMessagesByHash(ctx context.Context, chainID, messageHash string) error
	ClearMessagesBySafe(ctx context.Context, chainID, safe string) error
}

type ChainsCache interface {
	ClearIsSupportedChain()
	ClearChain(ctx context.Context, chainID string) error
}

type StakingCache interface {
	ClearStakes(ctx context.Context, chainID, safe string) error
	ClearAPI(chainID string)
}

type SafeAppsCache interface {
	ClearSafeApps(ctx context.Context, chainID string) error
}

type BlockchainCache interface {
	ClearAPI(chainID string)
}

// Repositories groups the cache owners the engine clears.
type Repositories struct {
	Safe         SafeCache
	Balances     BalancesCache
	Collectibles CollectiblesCache
	Messages     MessagesCache
	Chains       ChainsCache
	Staking      StakingCache
	SafeApps     SafeAppsCache
	Blockchain   BlockchainCache
}

type op struct {
	name string
	run  func(ctx context.Context, ev events.Event) error
}

type Engine struct {
	repos   Repositories
	table   map[events.Type][]op
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewEngine(repos Repositories, m *metrics.Metrics, logger *zap.Logger) *Engine {
	e := &Engine{repos: repos, metrics: m, logger: logger}
	e.table = e.buildTable()
	return e
}

// Plan lists the operations run for an event type, in table order.
func (e *Engine) Plan(t events.Type) []string {
	ops := e.table[t]
	names := make([]string, len(ops))
	for i, o := range ops {
		names[i] = o.name
	}
	return names
}

// OnEvent runs every invalidation of the event concurrently and waits for
// all of them. A failing operation does not stop its siblings; the returned
// error combines every failure.
func (e *Engine) OnEvent(ctx context.Context, ev events.Event) error {
	e.logEvent(ev)

	ops := e.table[ev.Type]
	if len(ops) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, o := range ops {
		o := o
		p.Go(func(ctx context.Context) error {
			if err := o.run(ctx, ev); err != nil {
				return fmt.Errorf("%s: %w", o.name, err)
			}
			return nil
		})
	}

	err := p.Wait()
	if err != nil {
		failures := multierr.Errors(err)
		e.metrics.InvalidationFailures.WithLabelValues(string(ev.Type)).Add(float64(len(failures)))
		e.logger.Error("Cache invalidation failed",
			zap.String("type", string(ev.Type)),
			zap.String("chainId", ev.ChainID),
			zap.Int("failed", len(failures)),
			zap.Int("total", len(ops)),
			zap.Error(err))
	}
	return err
}

func (e *Engine) buildTable() map[events.Type][]op {
	r := e.repos

	clearMultisigTransactions := op{"ClearMultisigTransactions", func(ctx context.Context, ev events.Event) error {
		return r.Safe.ClearMultisigTransactions(ctx, ev.ChainID, ev.Address)
	}}
	clearMultisigTransaction := op{"ClearMultisigTransaction", func(ctx context.Context, ev events.Event) error {
		return r.Safe.ClearMultisigTransaction(ctx, ev.ChainID, ev.SafeTxHash)
	}}
	clearAllExecutedTransactions := op{"ClearAllExecutedTransactions", func(ctx context.Context, ev events.Event) error {
		return r.Safe.ClearAllExecutedTransactions(ctx, ev.ChainID, ev.Address)
	}}
	clearModuleTransactions := op{"ClearModuleTransactions", func(ctx context.Context, ev events.Event) error {
		return r.Safe.ClearModuleTransactions(ctx, ev.ChainID, ev.Address)
	}}
	clearTransfers := op{"ClearTransfers", func(ctx context.Context, ev events.Event) error {
		return r.Safe.ClearTransfers(ctx, ev.ChainID, ev.Address)
	}}
	clearIncomingTransfers := op{"ClearIncomingTransfers", func(ctx context.Context, ev events.Event) error {
		return r.Safe.ClearIncomingTransfers(ctx, ev.ChainID, ev.Address)
	}}
	clearSafe := op{"ClearSafe", func(ctx context.Context, ev events.Event) error {
		return r.Safe.ClearSafe(ctx, ev.ChainID, ev.Address)
	}}
	clearIsSafe := op{"ClearIsSafe", func(ctx context.Context, ev events.Event) error {
		return r.Safe.ClearIsSafe(ctx, ev.ChainID, ev.Address)
	}}
	clearBalances := op{"ClearBalances", func(ctx context.Context, ev events.Event) error {
		return r.Balances.ClearBalances(ctx, ev.ChainID, ev.Address)
	}}
	clearCollectibles := op{"ClearCollectibles", func(ctx context.Context, ev events.Event) error {
		return r.Collectibles.ClearCollectibles(ctx, ev.ChainID, ev.Address)
	}}
	clearStakes := op{"ClearStakes", func(ctx context.Context, ev events.Event) error {
		return r.Staking.ClearStakes(ctx, ev.ChainID, ev.Address)
	}}
	clearMessagesBySafe := op{"ClearMessagesBySafe", func(ctx context.Context, ev events.Event) error {
		return r.Messages.ClearMessagesBySafe(ctx, ev.ChainID, ev.Address)
	}}
	clearMessagesByHash := op{"ClearMessagesByHash", func(ctx context.Context, ev events.Event) error {
		return r.Messages.ClearMessagesByHash(ctx, ev.ChainID, ev.MessageHash)
	}}
	clearIsSupportedChain := op{"ClearIsSupportedChain", func(context.Context, events.Event) error {
		r.Chains.ClearIsSupportedChain()
		return nil
	}}
	// Clients are rebuilt from chain config, so they are only dropped once the
	// cached chain is gone.
	clearChain := op{"ClearChain", func(ctx context.Context, ev events.Event) error {
		if err := r.Chains.ClearChain(ctx, ev.ChainID); err != nil {
			return err
		}
		r.Blockchain.ClearAPI(ev.ChainID)
		r.Staking.ClearAPI(ev.ChainID)
		r.Safe.ClearAPI(ev.ChainID)
		r.Balances.ClearAPI(ev.ChainID)
		return nil
	}}
	clearSafeApps := op{"ClearSafeApps", func(ctx context.Context, ev events.Event) error {
		return r.SafeApps.ClearSafeApps(ctx, ev.ChainID)
	}}

	pendingOps := []op{clearMultisigTransactions, clearMultisigTransaction}

	return map[events.Type][]op{
		events.PendingMultisigTransaction: pendingOps,
		events.DeletedMultisigTransaction: pendingOps,
		events.NewConfirmation:            pendingOps,
		events.ModuleTransaction: {
			clearAllExecutedTransactions, clearStakes, clearModuleTransactions, clearSafe,
		},
		events.ExecutedMultisigTransaction: {
			clearCollectibles, clearAllExecutedTransactions, clearTransfers,
			clearMultisigTransactions, clearMultisigTransaction, clearSafe, clearStakes,
		},
		events.IncomingEther: {
			clearBalances, clearAllExecutedTransactions, clearMultisigTransactions,
			clearTransfers, clearIncomingTransfers,
		},
		events.OutgoingEther: {
			clearBalances, clearAllExecutedTransactions, clearMultisigTransactions, clearTransfers,
		},
		events.IncomingToken: {
			clearBalances, clearCollectibles, clearAllExecutedTransactions,
			clearMultisigTransactions, clearTransfers, clearIncomingTransfers,
		},
		events.OutgoingToken: {
			clearBalances, clearCollectibles, clearAllExecutedTransactions,
			clearMultisigTransactions, clearTransfers,
		},
		events.MessageCreated:      {clearMessagesBySafe},
		events.MessageConfirmation: {clearMessagesByHash, clearMessagesBySafe},
		events.ChainUpdate:         {clearIsSupportedChain, clearChain},
		events.SafeAppsUpdate:      {clearSafeApps},
		events.SafeCreated:         {clearIsSafe},
	}
}

func (e *Engine) logEvent(ev events.Event) {
	fields := []zap.Field{zap.String("type", string(ev.Type)), zap.String("chainId", ev.ChainID)}

	switch ev.Type {
	case events.PendingMultisigTransaction, events.DeletedMultisigTransaction,
		events.ExecutedMultisigTransaction, events.NewConfirmation:
		fields = append(fields, zap.String("address", ev.Address), zap.String("safeTxHash", ev.SafeTxHash))
	case events.ModuleTransaction, events.IncomingEther, events.OutgoingEther,
		events.IncomingToken, events.OutgoingToken:
		fields = append(fields, zap.String("address", ev.Address), zap.String("txHash", ev.TxHash))
	case events.MessageCreated, events.MessageConfirmation:
		fields = append(fields, zap.String("address", ev.Address), zap.String("messageHash", ev.MessageHash))
	case events.ChainUpdate, events.SafeAppsUpdate:
	case events.ReorgDetected:
		fields = append(fields, zap.Uint64("blockNumber", ev.BlockNumber))
	case events.NewDelegate, events.UpdatedDelegate, events.DeletedDelegate:
		fields = append(fields,
			zap.String("address", ev.Address),
			zap.String("delegate", ev.Delegate),
			zap.String("delegator", ev.Delegator))
	default:
		return
	}

	e.logger.Info("Domain event", fields...)
}
