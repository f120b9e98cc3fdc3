// Package notification decides who is told about a domain event and with
// which payload, and hands the payloads to the push provider.
package notification

import (
	"gateway/apps/gateway/internal/events"
)

const (
	ConfirmationRequest        = "CONFIRMATION_REQUEST"
	MessageConfirmationRequest = "MESSAGE_CONFIRMATION_REQUEST"
)

// Notification is the payload delivered to a device.
type Notification interface {
	NotificationType() string
}

// EventNotification forwards the event unchanged.
type EventNotification struct {
	events.Event
}

func (n EventNotification) NotificationType() string {
	return string(n.Type)
}

// ConfirmationRequestNotification asks To to sign a pending transaction.
type ConfirmationRequestNotification struct {
	Type       string `json:"type"`
	To         string `json:"to"`
	ChainID    string `json:"chainId"`
	Address    string `json:"address"`
	SafeTxHash string `json:"safeTxHash"`
}

func (n ConfirmationRequestNotification) NotificationType() string {
	return n.Type
}

// MessageConfirmationRequestNotification asks To to sign an off-chain message.
type MessageConfirmationRequestNotification struct {
	Type        string `json:"type"`
	To          string `json:"to"`
	ChainID     string `json:"chainId"`
	Address     string `json:"address"`
	MessageHash string `json:"messageHash"`
}

func (n MessageConfirmationRequestNotification) NotificationType() string {
	return n.Type
}

var silent = map[events.Type]struct{}{
	events.ChainUpdate:         {},
	events.SafeAppsUpdate:      {},
	events.OutgoingEther:       {},
	events.OutgoingToken:       {},
	events.NewConfirmation:     {},
	events.MessageConfirmation: {},
	events.SafeCreated:         {},
	events.ReorgDetected:       {},
	events.NewDelegate:         {},
	events.UpdatedDelegate:     {},
	events.DeletedDelegate:     {},
}

// IsNotifiable reports whether subscribers hear about events of type t.
func IsNotifiable(t events.Type) bool {
	_, ok := silent[t]
	return !ok
}

// requiresSigner lists the types only owners and their delegates are told about.
func requiresSigner(t events.Type) bool {
	return t == events.PendingMultisigTransaction || t == events.MessageCreated
}
