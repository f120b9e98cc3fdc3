package notification

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gateway/apps/gateway/internal/events"
	"gateway/apps/gateway/internal/metrics"
	"gateway/apps/gateway/internal/model"
	"gateway/apps/gateway/internal/push"
	"gateway/apps/gateway/internal/settle"
	"gateway/apps/gateway/internal/upstream"
)

type Subscriptions interface {
	GetSubscribersBySafe(ctx context.Context, chainID, safeAddress string) ([]model.Subscription, error)
}

type Safes interface {
	GetSafe(ctx context.Context, chainID, address string) (upstream.Safe, error)
	GetMultisigTransaction(ctx context.Context, chainID, safeTxHash string) (upstream.MultisigTransaction, error)
	GetIncomingTransfers(ctx context.Context, chainID, safe, txHash string) (upstream.Page[upstream.Transfer], error)
}

type Messages interface {
	GetMessageByHash(ctx context.Context, chainID, messageHash string) (upstream.Message, error)
}

type Delegates interface {
	GetDelegates(ctx context.Context, chainID, safe, delegate string) (upstream.Page[upstream.Delegate], error)
}

type Pusher interface {
	EnqueueNotification(ctx context.Context, msg push.Message) error
}

var errNotSigner = errors.New("subscriber is neither owner nor delegate")

type Engine struct {
	subscriptions Subscriptions
	safes         Safes
	messages      Messages
	delegates     Delegates
	pusher        Pusher
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewEngine(subscriptions Subscriptions, safes Safes, messages Messages, delegates Delegates, pusher Pusher, m *metrics.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		subscriptions: subscriptions,
		safes:         safes,
		messages:      messages,
		delegates:     delegates,
		pusher:        pusher,
		metrics:       m,
		logger:        logger,
	}
}

type delivery struct {
	subscription model.Subscription
	data         Notification
}

// OnEvent notifies the subscribers of the event's Safe. Failures are logged
// per subscriber and never returned.
func (e *Engine) OnEvent(ctx context.Context, ev events.Event) {
	if !IsNotifiable(ev.Type) {
		return
	}

	subs, err := e.subscriptions.GetSubscribersBySafe(ctx, ev.ChainID, ev.Address)
	if err != nil {
		e.logger.Error("Failed to get subscribers",
			zap.String("chainId", ev.ChainID),
			zap.String("safeAddress", ev.Address),
			zap.Error(err))
		return
	}

	// Rows sharing a token may carry different owner keys, so signer-only
	// events pick the token's row after eligibility and mapping.
	if !requiresSigner(ev.Type) {
		subs = dedupeByToken(subs, subscriptionToken)
	} else {
		subs = settle.Map(ctx, subs, func(ctx context.Context, sub model.Subscription) (model.Subscription, error) {
			ok, err := e.isOwnerOrDelegate(ctx, ev, sub)
			if err != nil {
				e.logger.Warn("Failed to check subscriber",
					zap.String("chainId", ev.ChainID),
					zap.String("safeAddress", ev.Address),
					zap.String("deviceUuid", sub.DeviceUUID.String()),
					zap.Error(err))
				return sub, err
			}
			if !ok {
				return sub, errNotSigner
			}
			return sub, nil
		})
	}

	mapped := settle.All(ctx, subs, func(ctx context.Context, sub model.Subscription) (delivery, error) {
		data, err := e.mapNotification(ctx, ev, sub)
		return delivery{subscription: sub, data: data}, err
	})

	var deliveries []delivery
	for i, r := range mapped {
		if r.Err != nil {
			e.logger.Warn("Failed to build notification",
				zap.String("chainId", ev.ChainID),
				zap.String("safeAddress", ev.Address),
				zap.String("deviceUuid", subs[i].DeviceUUID.String()),
				zap.Error(r.Err))
			continue
		}
		if r.Value.data != nil {
			deliveries = append(deliveries, r.Value)
		}
	}

	deliveries = dedupeByToken(deliveries, deliveryToken)

	settle.All(ctx, deliveries, func(ctx context.Context, d delivery) (struct{}, error) {
		return struct{}{}, e.deliver(ctx, ev, d)
	})
}

func (e *Engine) deliver(ctx context.Context, ev events.Event, d delivery) error {
	fields := []zap.Field{
		zap.String("chainId", ev.ChainID),
		zap.String("safeAddress", ev.Address),
		zap.String("notificationType", d.data.NotificationType()),
		zap.String("deviceUuid", d.subscription.DeviceUUID.String()),
		zap.String("token", d.subscription.CloudMessagingToken),
	}

	err := e.pusher.EnqueueNotification(ctx, push.Message{
		Token:        d.subscription.CloudMessagingToken,
		DeviceUUID:   d.subscription.DeviceUUID,
		Notification: push.Notification{Data: d.data},
	})
	if err != nil {
		e.metrics.Notifications.WithLabelValues(d.data.NotificationType(), "error").Inc()
		e.logger.Error("NotificationError", append(fields, zap.Error(err))...)
		return err
	}

	e.metrics.Notifications.WithLabelValues(d.data.NotificationType(), "sent").Inc()
	e.logger.Info("NotificationSent", fields...)
	return nil
}

// mapNotification returns the payload for one subscriber, or nil when the
// subscriber must not be notified.
func (e *Engine) mapNotification(ctx context.Context, ev events.Event, sub model.Subscription) (Notification, error) {
	switch ev.Type {
	case events.IncomingEther, events.IncomingToken:
		if e.isSelfTransfer(ctx, ev) {
			return nil, nil
		}
		return EventNotification{Event: ev}, nil
	case events.PendingMultisigTransaction:
		return e.mapPendingMultisigTransaction(ctx, ev, sub)
	case events.MessageCreated:
		return e.mapMessageCreated(ctx, ev, sub)
	default:
		return EventNotification{Event: ev}, nil
	}
}

// isSelfTransfer reports whether the incoming transfer was sent by the Safe
// itself. Lookup failures count as not self.
func (e *Engine) isSelfTransfer(ctx context.Context, ev events.Event) bool {
	transfers, err := e.safes.GetIncomingTransfers(ctx, ev.ChainID, ev.Address, ev.TxHash)
	if err != nil {
		e.logger.Debug("Failed to get incoming transfers", zap.String("txHash", ev.TxHash), zap.Error(err))
		return false
	}
	return len(transfers.Results) > 0 && sameAddress(transfers.Results[0].From, ev.Address)
}

func (e *Engine) mapPendingMultisigTransaction(ctx context.Context, ev events.Event, sub model.Subscription) (Notification, error) {
	if sub.Subscriber == nil {
		return nil, nil
	}

	safe, err := e.safes.GetSafe(ctx, ev.ChainID, ev.Address)
	if err != nil {
		return nil, err
	}
	if safe.Threshold == 1 {
		return nil, nil
	}

	tx, err := e.safes.GetMultisigTransaction(ctx, ev.ChainID, ev.SafeTxHash)
	if err != nil {
		return nil, err
	}
	confirmations := make([]string, len(tx.Confirmations))
	for i, c := range tx.Confirmations {
		confirmations[i] = c.Owner
	}

	signed, err := e.hasSubscriberSigned(ctx, ev, *sub.Subscriber, confirmations)
	if err != nil || signed {
		return nil, err
	}

	return ConfirmationRequestNotification{
		Type:       ConfirmationRequest,
		To:         sub.Subscriber.Hex(),
		ChainID:    ev.ChainID,
		Address:    ev.Address,
		SafeTxHash: ev.SafeTxHash,
	}, nil
}

func (e *Engine) mapMessageCreated(ctx context.Context, ev events.Event, sub model.Subscription) (Notification, error) {
	if sub.Subscriber == nil {
		return nil, nil
	}

	safe, err := e.safes.GetSafe(ctx, ev.ChainID, ev.Address)
	if err != nil {
		return nil, err
	}
	if safe.Threshold == 1 {
		return nil, nil
	}

	msg, err := e.messages.GetMessageByHash(ctx, ev.ChainID, ev.MessageHash)
	if err != nil {
		return nil, err
	}
	confirmations := make([]string, len(msg.Confirmations))
	for i, c := range msg.Confirmations {
		confirmations[i] = c.Owner
	}

	signed, err := e.hasSubscriberSigned(ctx, ev, *sub.Subscriber, confirmations)
	if err != nil || signed {
		return nil, err
	}

	return MessageConfirmationRequestNotification{
		Type:        MessageConfirmationRequest,
		To:          sub.Subscriber.Hex(),
		ChainID:     ev.ChainID,
		Address:     ev.Address,
		MessageHash: ev.MessageHash,
	}, nil
}

// isOwnerOrDelegate checks Safe ownership first and only asks for delegates
// when the subscriber is not an owner.
func (e *Engine) isOwnerOrDelegate(ctx context.Context, ev events.Event, sub model.Subscription) (bool, error) {
	if sub.Subscriber == nil {
		return false, nil
	}

	safe, err := e.safes.GetSafe(ctx, ev.ChainID, ev.Address)
	if err != nil {
		return false, err
	}
	for _, owner := range safe.Owners {
		if sameAddress(owner, sub.Subscriber.Hex()) {
			return true, nil
		}
	}

	delegates, err := e.delegates.GetDelegates(ctx, ev.ChainID, ev.Address, sub.Subscriber.Hex())
	if err != nil {
		return false, err
	}
	for _, d := range delegates.Results {
		if d.Safe != nil && sameAddress(*d.Safe, ev.Address) && sameAddress(d.Delegate, sub.Subscriber.Hex()) {
			return true, nil
		}
	}
	return false, nil
}

// hasSubscriberSigned reports whether the subscriber, or an owner it is a
// delegate of, appears among the confirmations.
func (e *Engine) hasSubscriberSigned(ctx context.Context, ev events.Event, subscriber common.Address, confirmations []string) (bool, error) {
	delegates, err := e.delegates.GetDelegates(ctx, ev.ChainID, ev.Address, subscriber.Hex())
	if err != nil {
		return false, err
	}

	signers := map[common.Address]struct{}{subscriber: {}}
	for _, d := range delegates.Results {
		signers[common.HexToAddress(d.Delegator)] = struct{}{}
	}

	for _, owner := range confirmations {
		if _, ok := signers[common.HexToAddress(owner)]; ok {
			return true, nil
		}
	}
	return false, nil
}

// dedupeByToken keeps the first item per token, in input order.
func dedupeByToken[T any](items []T, token func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		t := token(item)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, item)
	}
	return out
}

func subscriptionToken(sub model.Subscription) string { return sub.CloudMessagingToken }

func deliveryToken(d delivery) string { return d.subscription.CloudMessagingToken }

func sameAddress(a, b string) bool {
	return common.HexToAddress(a) == common.HexToAddress(b)
}
