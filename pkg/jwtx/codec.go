package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshThreshold is how close to expiry a token is classified as needing a
// refresh. It must exceed a refresh round trip plus the time the user needs
// to react to a warning.
const RefreshThreshold = 5 * time.Minute

// ErrDecode reports a token whose payload cannot be decoded or carries no
// expiry claim.
var ErrDecode = errors.New("jwtx: malformed token")

// TokenState is the lifecycle classification of a bearer token at an instant.
type TokenState int

const (
	TokenMissing TokenState = iota
	TokenInvalid
	TokenExpired
	TokenNeedsRefresh
	TokenValid
)

func (s TokenState) String() string {
	switch s {
	case TokenMissing:
		return "missing"
	case TokenInvalid:
		return "invalid"
	case TokenExpired:
		return "expired"
	case TokenNeedsRefresh:
		return "needs_refresh"
	case TokenValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Usable reports whether a request may still carry the token.
func (s TokenState) Usable() bool {
	return s == TokenValid || s == TokenNeedsRefresh
}

var parser = jwt.NewParser()

// Decode extracts the claims from a token without verifying its signature.
// The portal holds no verification key; the API verifies every request.
func Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrDecode
	}

	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrDecode)
	}

	return claims, nil
}

// Classify returns the state of token at now using RefreshThreshold.
func Classify(token string, now time.Time) TokenState {
	return ClassifyWithThreshold(token, now, RefreshThreshold)
}

// ClassifyWithThreshold returns the state of token at now. It depends on
// nothing but its arguments.
func ClassifyWithThreshold(token string, now time.Time, threshold time.Duration) TokenState {
	if strings.TrimSpace(token) == "" {
		return TokenMissing
	}

	claims, err := Decode(token)
	if err != nil {
		return TokenInvalid
	}

	exp := claims.Expiry()
	if !now.Before(exp) {
		return TokenExpired
	}
	if exp.Sub(now) < threshold {
		return TokenNeedsRefresh
	}
	return TokenValid
}

// ExpiresAt decodes token and returns its expiry, or the zero time if the
// token cannot be decoded.
func ExpiresAt(token string) time.Time {
	claims, err := Decode(token)
	if err != nil {
		return time.Time{}
	}
	return claims.Expiry()
}
