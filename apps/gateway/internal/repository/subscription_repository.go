package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gateway/apps/gateway/internal/model"
)

type SubscriptionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSubscriptionRepository(db *sql.DB, logger *zap.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, logger: logger}
}

// UpsertSubscription registers the device for the Safe under the subscriber
// key. The token is refreshed on every registration of the device.
func (r *SubscriptionRepository) UpsertSubscription(ctx context.Context, sub model.Subscription) error {
	var signer sql.NullString
	if sub.Subscriber != nil {
		signer = sql.NullString{String: sub.Subscriber.Hex(), Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notification_subscriptions (chain_id, safe_address, signer_address, device_uuid, device_type, cloud_messaging_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chain_id, safe_address, device_uuid, (COALESCE(signer_address, ''))) DO UPDATE SET
			device_type = EXCLUDED.device_type,
			cloud_messaging_token = EXCLUDED.cloud_messaging_token,
			updated_at = NOW()
	`, sub.ChainID, sub.SafeAddress.Hex(), signer, sub.DeviceUUID, deviceType(sub.DeviceType), sub.CloudMessagingToken)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE notification_subscriptions
		SET cloud_messaging_token = $1, device_type = $2
		WHERE device_uuid = $3 AND cloud_messaging_token <> $1
	`, sub.CloudMessagingToken, deviceType(sub.DeviceType), sub.DeviceUUID)
	if err != nil {
		return fmt.Errorf("failed to update device token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit subscription: %w", err)
	}

	r.logger.Info("Upserted subscription",
		zap.String("chain_id", sub.ChainID),
		zap.String("safe_address", sub.SafeAddress.Hex()),
		zap.String("device_uuid", sub.DeviceUUID.String()))
	return nil
}

// GetSubscribersBySafe lists the registrations for a Safe, oldest update first.
func (r *SubscriptionRepository) GetSubscribersBySafe(ctx context.Context, chainID, safeAddress string) ([]model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chain_id, safe_address, signer_address, device_uuid, device_type, cloud_messaging_token, updated_at
		FROM notification_subscriptions
		WHERE chain_id = $1 AND safe_address = $2
		ORDER BY updated_at, id
	`, chainID, common.HexToAddress(safeAddress).Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var (
			sub    model.Subscription
			safe   string
			signer sql.NullString
		)
		if err := rows.Scan(&sub.ChainID, &safe, &signer, &sub.DeviceUUID, &sub.DeviceType, &sub.CloudMessagingToken, &sub.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.SafeAddress = common.HexToAddress(safe)
		if signer.Valid {
			addr := common.HexToAddress(signer.String)
			sub.Subscriber = &addr
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}

func (r *SubscriptionRepository) DeleteSubscription(ctx context.Context, deviceUUID, chainID, safeAddress string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM notification_subscriptions
		WHERE device_uuid = $1 AND chain_id = $2 AND safe_address = $3
	`, deviceUUID, chainID, common.HexToAddress(safeAddress).Hex())
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	n, _ := res.RowsAffected()
	r.logger.Info("Deleted subscription",
		zap.String("device_uuid", deviceUUID),
		zap.String("chain_id", chainID),
		zap.String("safe_address", safeAddress),
		zap.Int64("rows", n))
	return nil
}

// DeleteDevice removes every registration of a device.
func (r *SubscriptionRepository) DeleteDevice(ctx context.Context, deviceUUID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notification_subscriptions WHERE device_uuid = $1`, deviceUUID)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	n, _ := res.RowsAffected()
	r.logger.Info("Deleted device", zap.String("device_uuid", deviceUUID), zap.Int64("rows", n))
	return nil
}

func deviceType(t string) string {
	if t == "" {
		return "WEB"
	}
	return t
}
