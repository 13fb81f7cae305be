package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the planning engine wraps exactly one
// of these so the transport layer can map it without inspecting messages.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
)

// ErrInvariant marks a plan that breaks a structural rule. It is a server
// bug, not a caller mistake, so it has no kind of its own and maps to internal.
var ErrInvariant = errors.New("plan invariant violated")

// Kind names, stable across releases; clients key localized messages on them.
const (
	KindNotFound           = "not_found"
	KindForbidden          = "forbidden"
	KindInvalidState       = "invalid_state"
	KindPreconditionFailed = "precondition_failed"
	KindValidation         = "validation"
	KindConflict           = "conflict"
	KindInternal           = "internal"
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrNotFound, KindNotFound},
	{ErrForbidden, KindForbidden},
	{ErrInvalidState, KindInvalidState},
	{ErrPreconditionFailed, KindPreconditionFailed},
	{ErrValidation, KindValidation},
	{ErrConflict, KindConflict},
}

// KindOf returns the kind name for err, or KindInternal if it wraps none of the sentinels.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry the same action unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Errorf builds an error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
