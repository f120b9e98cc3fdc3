package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/upstream"
)

type MessagesRepository struct {
	region
	apis upstream.APIManager[upstream.TransactionService]
}

func NewMessagesRepository(svc cache.Service, apis upstream.APIManager[upstream.TransactionService], ttl time.Duration, logger *zap.Logger) *MessagesRepository {
	return &MessagesRepository{region: newRegion(svc, ttl, logger), apis: apis}
}

func (r *MessagesRepository) GetMessageByHash(ctx context.Context, chainID, messageHash string) (upstream.Message, error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.MessageDir(chainID, messageHash), r.ttl, func(ctx context.Context) (upstream.Message, error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Message{}, err
		}
		return api.GetMessageByHash(ctx, messageHash)
	})
}

func (r *MessagesRepository) GetMessagesBySafe(ctx context.Context, chainID, safe string, limit, offset int) (upstream.Page[upstream.Message], error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.MessagesBySafeDir(chainID, safe, limit, offset), r.ttl, func(ctx context.Context) (upstream.Page[upstream.Message], error) {
		api, err := r.apis.Get(ctx, chainID)
		if err != nil {
			return upstream.Page[upstream.Message]{}, err
		}
		return api.GetMessagesBySafe(ctx, safe, limit, offset)
	})
}

func (r *MessagesRepository) ClearMessagesByHash(ctx context.Context, chainID, messageHash string) error {
	return r.clear(ctx, r.router.MessageKey(chainID, messageHash))
}

func (r *MessagesRepository) ClearMessagesBySafe(ctx context.Context, chainID, safe string) error {
	return r.clear(ctx, r.router.MessagesBySafeKey(chainID, safe))
}
