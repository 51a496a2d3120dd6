package chatguru

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures surfaced by the ChatGuru client and the webhook model.
type ErrorKind string

const (
	KindNetwork       ErrorKind = "network"
	KindAPI           ErrorKind = "api"
	KindSerialization ErrorKind = "serialization"
	KindValidation    ErrorKind = "validation"
	KindInternal      ErrorKind = "internal"
)

// Sentinels usable with errors.Is against any *Error of the matching kind.
var (
	ErrNetwork       = errors.New("chatguru: network error")
	ErrAPI           = errors.New("chatguru: api error")
	ErrSerialization = errors.New("chatguru: serialization error")
	ErrValidation    = errors.New("chatguru: validation error")
	ErrInternal      = errors.New("chatguru: internal error")
)

// Error is the single error type returned by this package. StatusCode is only
// set for KindAPI.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindNetwork:
		b.WriteString("network error")
	case KindAPI:
		fmt.Fprintf(&b, "chatguru api error (status %d)", e.StatusCode)
	case KindSerialization:
		b.WriteString("serialization error")
	case KindValidation:
		b.WriteString("validation error")
	default:
		b.WriteString("internal error")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindNetwork:
		return ErrNetwork
	case KindAPI:
		return ErrAPI
	case KindSerialization:
		return ErrSerialization
	case KindValidation:
		return ErrValidation
	default:
		return ErrInternal
	}
}

// NewNetworkError reports a transport failure where no response was obtained.
func NewNetworkError(message string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// NewAPIError reports a response the remote service rejected.
func NewAPIError(statusCode int, message string) *Error {
	return &Error{Kind: KindAPI, StatusCode: statusCode, Message: message}
}

// NewSerializationError reports a JSON decode/encode failure.
func NewSerializationError(message string, err error) *Error {
	return &Error{Kind: KindSerialization, Message: message, Err: err}
}

// NewValidationError reports locally detected bad input.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewInternalError reports an invariant violation.
func NewInternalError(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}

// IsChatNotFound reports whether err is an API rejection caused by a chat that
// does not exist on the remote side. Inactive chats are routine, callers
// usually log these instead of alerting.
func IsChatNotFound(err error) bool {
	var cgErr *Error
	if !errors.As(err, &cgErr) || cgErr.Kind != KindAPI {
		return false
	}
	return isChatNotFoundMessage(cgErr.Message)
}

func isChatNotFoundMessage(message string) bool {
	return strings.Contains(message, "Chat não encontrado") ||
		strings.Contains(message, "Chat não existe") ||
		strings.Contains(message, "Chat n")
}
