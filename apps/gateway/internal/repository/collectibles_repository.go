package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/upstream"
)

type CollectiblesRepository struct {
	region
	apis upstream.APIManager[upstream.TransactionService]
}

func NewCollectiblesRepository(svc cache.Service, apis upstream.APIManager[upstream.TransactionService], ttl time.Duration, logger *zap.Logger) *CollectiblesRepository {
	return &CollectiblesRepository{region: newRegion(svc, ttl, logger), apis: apis}
}

func (r *CollectiblesRepository) GetCollectibles(ctx context.Context, chainID, safe string, limit, offset int) (upstream.Page[upstream.Collectible], error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.CollectiblesDir(chainID, safe, limit, offset), r.ttl, func(ctx context.Context) (upstream.Page[upstream.Collectible], error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Page[upstream.Collectible]{}, err
		}
		return api.GetCollectibles(ctx, safe, limit, offset)
	})
}

func (r *CollectiblesRepository) ClearCollectibles(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.CollectiblesKey(chainID, safe))
}
