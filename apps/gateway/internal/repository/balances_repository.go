package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/upstream"
)

type BalancesRepository struct {
	region
	apis upstream.APIManager[upstream.BalancesService]
}

func NewBalancesRepository(svc cache.Service, apis upstream.APIManager[upstream.BalancesService], ttl time.Duration, logger *zap.Logger) *BalancesRepository {
	return &BalancesRepository{region: newRegion(svc, ttl, logger), apis: apis}
}

func (r *BalancesRepository) GetBalances(ctx context.Context, chainID, safe string, trusted, excludeSpam bool) ([]upstream.Balance, error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.BalancesDir(chainID, safe, trusted, excludeSpam), r.ttl, func(ctx context.Context) ([]upstream.Balance, error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return nil, err
		}
		return api.GetBalances(ctx, safe, trusted, excludeSpam)
	})
}

func (r *BalancesRepository) ClearBalances(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.BalancesKey(chainID, safe))
}

func (r *BalancesRepository) ClearAPI(chainID string) {
	r.apis.Destroy(chainID)
}
