package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of failure categories exposed to callers.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindInternal           Kind = "internal"
)

// Error is the canonical ledger error. Message keeps the underlying storage
// text; callers branch on Kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(kind Kind, op, message string, cause error) error {
	return &Error{
		Kind:    kind,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with a kind, keeping its text as the message.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(kind, op, err.Error(), err)
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind carried by err, or "" when err is not a ledger error.
func KindOf(err error) Kind {
	var le *Error
	if !errors.As(err, &le) {
		return ""
	}
	return le.Kind
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var le *Error
	if errors.As(err, &le) && le.Message != "" {
		return le.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
