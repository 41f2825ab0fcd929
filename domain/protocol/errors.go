package protocol

import (
	"errors"
	"fmt"
)

// Machine-readable error kinds surfaced to clients.
const (
	KindAuthRequired    = "AuthRequired"
	KindAlreadyPending  = "AlreadyPending"
	KindInviteeOffline  = "InviteeOffline"
	KindNotFound        = "NotFound"
	KindPartialDelivery = "PartialDelivery"
	KindTimeout         = "Timeout"
	KindBadRequest      = "BadRequest"
	KindInternal        = "Internal"
)

// Error is a protocol-visible error carrying a machine-readable kind.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// E builds a protocol error.
func E(kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the protocol kind from an error chain.
// Errors without a kind are reported as Internal.
func KindOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
