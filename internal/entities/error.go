package entities

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork           = errors.New("network error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrValidation        = errors.New("validation error")
	ErrRateUnavailable   = errors.New("rate unavailable")
	ErrConfig            = errors.New("configuration error")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionClosed     = errors.New("session closed")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindMalformedResponse
	KindValidation
	KindRateUnavailable
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindMalformedResponse:
		return "malformed_response"
	case KindValidation:
		return "validation"
	case KindRateUnavailable:
		return "rate_unavailable"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error carries a message fit for the user and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind, so callers can test with
// errors.Is(err, ErrValidation) regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	return kindSentinel(e.Kind) == target
}

func kindSentinel(k Kind) error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindValidation:
		return ErrValidation
	case KindRateUnavailable:
		return ErrRateUnavailable
	case KindConfig:
		return ErrConfig
	default:
		return nil
	}
}

// UserMessage returns the message to show for err. Errors outside the
// taxonomy get a generic text.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong."
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
