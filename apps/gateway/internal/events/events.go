package events

import "encoding/json"

// Type discriminates the variants of Event.
type Type string

const (
	PendingMultisigTransaction  Type = "PENDING_MULTISIG_TRANSACTION"
	DeletedMultisigTransaction  Type = "DELETED_MULTISIG_TRANSACTION"
	ExecutedMultisigTransaction Type = "EXECUTED_MULTISIG_TRANSACTION"
	ModuleTransaction           Type = "MODULE_TRANSACTION"
	NewConfirmation             Type = "NEW_CONFIRMATION"
	IncomingEther               Type = "INCOMING_ETHER"
	OutgoingEther               Type = "OUTGOING_ETHER"
	IncomingToken               Type = "INCOMING_TOKEN"
	OutgoingToken               Type = "OUTGOING_TOKEN"
	MessageCreated              Type = "MESSAGE_CREATED"
	MessageConfirmation         Type = "MESSAGE_CONFIRMATION"
	SafeCreated                 Type = "SAFE_CREATED"
	ChainUpdate                 Type = "CHAIN_UPDATE"
	SafeAppsUpdate              Type = "SAFE_APPS_UPDATE"
	ReorgDetected               Type = "REORG_DETECTED"
	NewDelegate                 Type = "NEW_DELEGATE"
	UpdatedDelegate             Type = "UPDATED_DELEGATE"
	DeletedDelegate             Type = "DELETED_DELEGATE"
)

// Types lists every known discriminant.
var Types = []Type{
	PendingMultisigTransaction,
	DeletedMultisigTransaction,
	ExecutedMultisigTransaction,
	ModuleTransaction,
	NewConfirmation,
	IncomingEther,
	OutgoingEther,
	IncomingToken,
	OutgoingToken,
	MessageCreated,
	MessageConfirmation,
	SafeCreated,
	ChainUpdate,
	SafeAppsUpdate,
	ReorgDetected,
	NewDelegate,
	UpdatedDelegate,
	DeletedDelegate,
}

// Event is a domain event emitted by the transaction service or the config service.
// Only the fields relevant to Type are populated.
type Event struct {
	Type              Type   `json:"type"`
	ChainID           string `json:"chainId"`
	Address           string `json:"address,omitempty"`
	SafeTxHash        string `json:"safeTxHash,omitempty"`
	TxHash            string `json:"txHash,omitempty"`
	MessageHash       string `json:"messageHash,omitempty"`
	Owner             string `json:"owner,omitempty"`
	Module            string `json:"module,omitempty"`
	Failed            string `json:"failed,omitempty"`
	Value             string `json:"value,omitempty"`
	TokenAddress      string `json:"tokenAddress,omitempty"`
	BlockNumber       uint64 `json:"blockNumber,omitempty"`
	Delegate          string `json:"delegate,omitempty"`
	Delegator         string `json:"delegator,omitempty"`
	Label             string `json:"label,omitempty"`
	ExpiryDateSeconds *int64 `json:"expiryDateSeconds,omitempty"`
}

// Marshal encodes the event in its wire format.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
