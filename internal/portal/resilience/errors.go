package resilience

import (
	"fmt"
	"time"
)

// Kind classifies the outcome of a call.
type Kind int

const (
	KindDecode Kind = iota + 1
	KindTokenExpired
	KindAuthCooldownActive
	KindCircuitOpen
	KindRateLimited
	KindTimeout
	KindNetwork
	KindConflictRecovered
	KindServer
	KindValidation
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindTokenExpired:
		return "token_expired"
	case KindAuthCooldownActive:
		return "auth_cooldown_active"
	case KindCircuitOpen:
		return "circuit_open"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindConflictRecovered:
		return "conflict_recovered"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a classified failure returned by Layer.Execute.
type Error struct {
	Kind     Kind
	Endpoint string
	// Status is the HTTP status, zero when the call never reached the server
	Status int
	// Message is the server supplied message, if any
	Message string
	// RetryAfter is set for admission failures with a known horizon
	RetryAfter time.Duration
	Err        error
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrDecode             = &Error{Kind: KindDecode}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired}
	ErrAuthCooldownActive = &Error{Kind: KindAuthCooldownActive}
	ErrCircuitOpen        = &Error{Kind: KindCircuitOpen}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrNetwork            = &Error{Kind: KindNetwork}
	ErrServer             = &Error{Kind: KindServer}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrConflict           = &Error{Kind: KindConflict}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Endpoint != "" {
		msg += " " + e.Endpoint
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Admission reports whether the call was refused before reaching the network.
func (e *Error) Admission() bool {
	switch e.Kind {
	case KindAuthCooldownActive, KindCircuitOpen:
		return true
	case KindRateLimited:
		return e.Status == 0
	default:
		return false
	}
}

// UserMessage is the text shown to the employee.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindAuthCooldownActive:
		return "Too many authorization failures. Please wait a moment and try again later."
	case KindCircuitOpen:
		return "The service is temporarily unavailable. Please try again later."
	case KindRateLimited:
		return "Too many requests. Please slow down and try again later."
	case KindTimeout:
		return "The server took too long to respond. Please check your connection and try again."
	case KindNetwork:
		return "Unable to reach the server. Please check your connection and try again."
	case KindServer:
		return "The server encountered an error. Please try again in a few minutes."
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
		return "Some of the information provided is invalid. Please review and try again."
	case KindUnauthorized:
		return "You are not authorized to perform this action."
	case KindConflict:
		if e.Message != "" {
			return e.Message
		}
		return "This record conflicts with an existing one."
	case KindTokenExpired:
		return "Your session has expired. Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}
