package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/upstream"
)

type StakingRepository struct {
	region
	apis upstream.APIManager[upstream.StakingService]
}

func NewStakingRepository(svc cache.Service, apis upstream.APIManager[upstream.StakingService], ttl time.Duration, logger *zap.Logger) *StakingRepository {
	return &StakingRepository{region: newRegion(svc, ttl, logger), apis: apis}
}

func (r *StakingRepository) GetStakes(ctx context.Context, chainID, safe string) ([]upstream.Stake, error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.StakesDir(chainID, safe), r.ttl, func(ctx context.Context) ([]upstream.Stake, error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return nil, err
		}
		return api.GetStakes(ctx, []string{safe})
	})
}

func (r *StakingRepository) ClearStakes(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.StakesKey(chainID, safe))
}

func (r *StakingRepository) ClearAPI(chainID string) {
	r.apis.Destroy(chainID)
}
