package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims issued by the employee API. The portal
// only relies on "exp"; the remaining fields are informational and kept for
// logging and the user profile snapshot.
type Claims struct {
	jwt.RegisteredClaims

	// Employee email used at login
	Email string `json:"email,omitempty"`

	// Employee number in the HR system
	EmployeeID string `json:"employee_id,omitempty"`

	// Portal role, e.g. "employee", "manager", "hr_admin"
	Role string `json:"role,omitempty"`
}

// Expiry returns the decoded expiry instant.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// NewClaims builds claims for subject that expire ttl after now. The portal
// never mints production tokens; this exists for local tooling and tests.
func NewClaims(subject, email string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}
}

// Sign produces an HS256 token for claims. See NewClaims.
func Sign(claims Claims, key []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
