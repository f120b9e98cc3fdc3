package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/upstream"
)

// ContractChecker tells whether an address holds contract code.
type ContractChecker interface {
	IsContract(ctx context.Context, chainID, address string) (bool, error)
}

// SafeRepository serves Safe state and transaction history from the
// transaction service of each chain.
type SafeRepository struct {
	region
	apis       upstream.APIManager[upstream.TransactionService]
	blockchain ContractChecker
}

func NewSafeRepository(svc cache.Service, apis upstream.APIManager[upstream.TransactionService], blockchain ContractChecker, ttl time.Duration, logger *zap.Logger) *SafeRepository {
	return &SafeRepository{region: newRegion(svc, ttl, logger), apis: apis, blockchain: blockchain}
}

func (r *SafeRepository) GetSafe(ctx context.Context, chainID, address string) (upstream.Safe, error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.SafeDir(chainID, address), r.ttl, func(ctx context.Context) (upstream.Safe, error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Safe{}, err
		}
		return api.GetSafe(ctx, address)
	})
}

// IsSafe reports whether address is a Safe known to the transaction service.
// Addresses without contract code are rejected without asking it.
func (r *SafeRepository) IsSafe(ctx context.Context, chainID, address string) (bool, error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.SafeExistsDir(chainID, address), r.ttl, func(ctx context.Context) (bool, error) {
		if r.blockchain != nil {
			isContract, err := r.blockchain.IsContract(ctx, chainID, address)
			if err != nil {
				r.logger.Warn("Failed to read contract code", zap.String("chain_id", chainID), zap.String("address", address), zap.Error(err))
			} else if !isContract {
				return false, nil
			}
		}

		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return false, err
		}
		if _, err := api.GetSafe(ctx, address); err != nil {
			if errors.Is(err, upstream.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
}

func (r *SafeRepository) GetMultisigTransaction(ctx context.Context, chainID, safeTxHash string) (upstream.MultisigTransaction, error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.MultisigTransactionDir(chainID, safeTxHash), r.ttl, func(ctx context.Context) (upstream.MultisigTransaction, error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.MultisigTransaction{}, err
		}
		return api.GetMultisigTransaction(ctx, safeTxHash)
	})
}

func (r *SafeRepository) GetMultisigTransactions(ctx context.Context, chainID, safe string, limit, offset int) (upstream.Page[upstream.MultisigTransaction], error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.MultisigTransactionsDir(chainID, safe, limit, offset), r.ttl, func(ctx context.Context) (upstream.Page[upstream.MultisigTransaction], error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Page[upstream.MultisigTransaction]{}, err
		}
		return api.GetMultisigTransactions(ctx, safe, limit, offset)
	})
}

func (r *SafeRepository) GetAllTransactions(ctx context.Context, chainID, safe string, limit, offset int) (upstream.Page[json.RawMessage], error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.AllTransactionsDir(chainID, safe, limit, offset), r.ttl, func(ctx context.Context) (upstream.Page[json.RawMessage], error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Page[json.RawMessage]{}, err
		}
		return api.GetAllTransactions(ctx, safe, limit, offset)
	})
}

func (r *SafeRepository) GetModuleTransactions(ctx context.Context, chainID, safe string, limit, offset int) (upstream.Page[json.RawMessage], error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.ModuleTransactionsDir(chainID, safe, limit, offset), r.ttl, func(ctx context.Context) (upstream.Page[json.RawMessage], error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Page[json.RawMessage]{}, err
		}
		return api.GetModuleTransactions(ctx, safe, limit, offset)
	})
}

func (r *SafeRepository) GetTransfers(ctx context.Context, chainID, safe string, limit, offset int) (upstream.Page[json.RawMessage], error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.TransfersDir(chainID, safe, limit, offset), r.ttl, func(ctx context.Context) (upstream.Page[json.RawMessage], error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Page[json.RawMessage]{}, err
		}
		return api.GetTransfers(ctx, safe, limit, offset)
	})
}

func (r *SafeRepository) GetIncomingTransfers(ctx context.Context, chainID, safe, txHash string) (upstream.Page[upstream.Transfer], error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.IncomingTransfersDir(chainID, safe, txHash), r.ttl, func(ctx context.Context) (upstream.Page[upstream.Transfer], error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Page[upstream.Transfer]{}, err
		}
		return api.GetIncomingTransfers(ctx, safe, txHash)
	})
}

func (r *SafeRepository) ClearSafe(ctx context.Context, chainID, address string) error {
	return r.clear(ctx, r.router.SafeKey(chainID, address))
}

func (r *SafeRepository) ClearIsSafe(ctx context.Context, chainID, address string) error {
	return r.clear(ctx, r.router.SafeExistsKey(chainID, address))
}

func (r *SafeRepository) ClearMultisigTransactions(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.MultisigTransactionsKey(chainID, safe))
}

func (r *SafeRepository) ClearMultisigTransaction(ctx context.Context, chainID, safeTxHash string) error {
	return r.clear(ctx, r.router.MultisigTransactionKey(chainID, safeTxHash))
}

func (r *SafeRepository) ClearAllExecutedTransactions(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.AllTransactionsKey(chainID, safe))
}

func (r *SafeRepository) ClearModuleTransactions(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.ModuleTransactionsKey(chainID, safe))
}

func (r *SafeRepository) ClearTransfers(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.TransfersKey(chainID, safe))
}

func (r *SafeRepository) ClearIncomingTransfers(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.IncomingTransfersKey(chainID, safe))
}

// ClearAPI drops the chain's transaction service client. The client is shared
// with the message and delegate repositories.
func (r *SafeRepository) ClearAPI(chainID string) {
	r.apis.Destroy(chainID)
}
