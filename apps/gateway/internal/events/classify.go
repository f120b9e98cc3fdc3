package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidEvent     = errors.New("invalid event")
)

type field struct {
	name    string
	address bool
	get     func(Event) string
}

var (
	fAddress      = field{"address", true, func(e Event) string { return e.Address }}
	fSafeTxHash   = field{"safeTxHash", false, func(e Event) string { return e.SafeTxHash }}
	fTxHash       = field{"txHash", false, func(e Event) string { return e.TxHash }}
	fMessageHash  = field{"messageHash", false, func(e Event) string { return e.MessageHash }}
	fOwner        = field{"owner", true, func(e Event) string { return e.Owner }}
	fModule       = field{"module", true, func(e Event) string { return e.Module }}
	fValue        = field{"value", false, func(e Event) string { return e.Value }}
	fTokenAddress = field{"tokenAddress", true, func(e Event) string { return e.TokenAddress }}
	fDelegate     = field{"delegate", true, func(e Event) string { return e.Delegate }}
	fDelegator    = field{"delegator", true, func(e Event) string { return e.Delegator }}
)

// required lists the fields, besides chainId, that each type must carry.
var required = map[Type][]field{
	PendingMultisigTransaction:  {fAddress, fSafeTxHash},
	DeletedMultisigTransaction:  {fAddress, fSafeTxHash},
	ExecutedMultisigTransaction: {fAddress, fSafeTxHash, fTxHash},
	NewConfirmation:             {fAddress, fSafeTxHash, fOwner},
	ModuleTransaction:           {fAddress, fTxHash, fModule},
	IncomingEther:               {fAddress, fTxHash, fValue},
	OutgoingEther:               {fAddress, fTxHash, fValue},
	IncomingToken:               {fAddress, fTxHash, fTokenAddress},
	OutgoingToken:               {fAddress, fTxHash, fTokenAddress},
	MessageCreated:              {fAddress, fMessageHash},
	MessageConfirmation:         {fAddress, fMessageHash},
	SafeCreated:                 {fAddress},
	ChainUpdate:                 {},
	SafeAppsUpdate:              {},
	ReorgDetected:               {},
	NewDelegate:                 {fDelegate, fDelegator},
	UpdatedDelegate:             {fDelegate, fDelegator},
	DeletedDelegate:             {fDelegate, fDelegator},
}

// Known reports whether t is one of the supported discriminants.
func Known(t Type) bool {
	_, ok := required[t]
	return ok
}

// Classify decodes a raw inbound message into a typed Event. It fails with
// ErrUnknownEventType when the discriminant is not supported and with
// ErrInvalidEvent when the payload lacks the fields its type requires.
func Classify(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := Validate(ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Validate checks an already decoded event.
func Validate(ev Event) error {
	fields, ok := required[ev.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
	if strings.TrimSpace(ev.ChainID) == "" {
		return fmt.Errorf("%w: %s is missing chainId", ErrInvalidEvent, ev.Type)
	}
	for _, f := range fields {
		v := f.get(ev)
		if v == "" {
			return fmt.Errorf("%w: %s is missing %s", ErrInvalidEvent, ev.Type, f.name)
		}
		if f.address && !common.IsHexAddress(v) {
			return fmt.Errorf("%w: %s has malformed %s %q", ErrInvalidEvent, ev.Type, f.name, v)
		}
	}
	switch ev.Type {
	case SafeCreated, ReorgDetected:
		if ev.BlockNumber == 0 {
			return fmt.Errorf("%w: %s is missing blockNumber", ErrInvalidEvent, ev.Type)
		}
	case NewDelegate, UpdatedDelegate, DeletedDelegate:
		if ev.Address != "" && !common.IsHexAddress(ev.Address) {
			return fmt.Errorf("%w: %s has malformed address %q", ErrInvalidEvent, ev.Type, ev.Address)
		}
	}
	return nil
}
