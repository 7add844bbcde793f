package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoSession is returned by operations that need an active session.
	ErrNoSession = errors.New("session: no active session")

	// ErrRefreshRejected wraps a refresh that the API refused with 401.
	ErrRefreshRejected = errors.New("session: refresh token rejected")

	// ErrStaleSession is returned when a refresh completes for a session that
	// has since ended or been replaced. Its result is discarded.
	ErrStaleSession = errors.New("session: result belongs to a previous session")

	// ErrInvalidToken reports a stored or held token that cannot be decoded.
	ErrInvalidToken = errors.New("session: token is malformed")

	// ErrLockedOut matches every *LockoutError.
	ErrLockedOut = errors.New("session: login locked out")
)

// LockoutError is returned by Login while the API's login lockout runs.
type LockoutError struct {
	Remaining time.Duration
	Err       error
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("login locked out, try again in %s", e.Remaining.Round(time.Second))
}

func (e *LockoutError) Is(target error) bool { return target == ErrLockedOut }

func (e *LockoutError) Unwrap() error { return e.Err }
