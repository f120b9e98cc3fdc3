package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Subscription registers a device for notifications about one Safe.
// Subscriber is the signer the device acts for and is nil for watch-only devices.
type Subscription struct {
	ChainID             string          `db:"chain_id"`
	SafeAddress         common.Address  `db:"safe_address"`
	Subscriber          *common.Address `db:"signer_address"`
	DeviceUUID          uuid.UUID       `db:"device_uuid"`
	DeviceType          string          `db:"device_type"`
	CloudMessagingToken string          `db:"cloud_messaging_token"`
	UpdatedAt           time.Time       `db:"updated_at"`
}
