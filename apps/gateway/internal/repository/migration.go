package repository

import (
	"database/sql"
	"fmt"
)

// InitMigration creates the tables the gateway owns. Statements are idempotent
// so it runs on every start.
func InitMigration(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS notification_subscriptions (
			id SERIAL PRIMARY KEY,
			chain_id VARCHAR(32) NOT NULL,
			safe_address VARCHAR(42) NOT NULL,
			signer_address VARCHAR(42),
			device_uuid UUID NOT NULL,
			device_type VARCHAR(16) NOT NULL DEFAULT 'WEB',
			cloud_messaging_token TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		// A device may register several owner keys for one Safe. Watch-only
		// rows have no signer and count as one key.
		`ALTER TABLE notification_subscriptions DROP CONSTRAINT IF EXISTS notification_subscriptions_chain_id_safe_address_device_uuid_key`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_notification_subscriptions_signer ON notification_subscriptions (chain_id, safe_address, device_uuid, (COALESCE(signer_address, '')))`,
		`CREATE INDEX IF NOT EXISTS idx_notification_subscriptions_safe ON notification_subscriptions (chain_id, safe_address)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_subscriptions_device ON notification_subscriptions (device_uuid)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}
