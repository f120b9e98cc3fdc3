package repository

import (
	"context"

	"gateway/apps/gateway/internal/upstream"
)

// DelegatesRepository reads delegates straight from the transaction service.
// Delegate events carry no invalidation, so these reads are never cached.
type DelegatesRepository struct {
	apis upstream.APIManager[upstream.TransactionService]
}

func NewDelegatesRepository(apis upstream.APIManager[upstream.TransactionService]) *DelegatesRepository {
	return &DelegatesRepository{apis: apis}
}

// GetDelegates lists delegates filtered by Safe and delegate address. Empty
// filters are omitted.
func (r *DelegatesRepository) GetDelegates(ctx context.Context, chainID, safe, delegate string) (upstream.Page[upstream.Delegate], error) {
	api, err := r.apis.Get(ctx, chainID)
	if err != nil {
		return upstream.Page[upstream.Delegate]{}, err
	}
	return api.GetDelegates(ctx, safe, delegate)
}
