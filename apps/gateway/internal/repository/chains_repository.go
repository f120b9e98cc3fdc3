package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/upstream"
)

// ChainsRepository serves chain configuration. Chain support is memoized per
// repository instance until ClearIsSupportedChain.
type ChainsRepository struct {
	region
	config    upstream.ConfigService
	supported *cache.Memo[string, bool]
}

func NewChainsRepository(svc cache.Service, config upstream.ConfigService, ttl time.Duration, logger *zap.Logger) *ChainsRepository {
	r := &ChainsRepository{region: newRegion(svc, ttl, logger), config: config}
	r.supported = cache.NewMemo(r.isSupportedChain)
	return r
}

func (r *ChainsRepository) GetChain(ctx context.Context, chainID string) (upstream.Chain, error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.ChainDir(chainID), r.ttl, func(ctx context.Context) (upstream.Chain, error) {
		return r.config.GetChain(ctx, chainID)
	})
}

func (r *ChainsRepository) IsSupportedChain(ctx context.Context, chainID string) (bool, error) {
	return r.supported.Get(ctx, chainID)
}

func (r *ChainsRepository) isSupportedChain(ctx context.Context, chainID string) (bool, error) {
	if _, err := r.GetChain(ctx, chainID); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ChainsRepository) ClearIsSupportedChain() {
	r.supported.Clear()
}

func (r *ChainsRepository) ClearChain(ctx context.Context, chainID string) error {
	return r.clear(ctx, r.router.ChainKey(chainID))
}
