package portalsdk

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// TokenPair is the access and refresh token issued at login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// User is the profile snapshot returned at login.
type User struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id,omitempty"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is the successful result of Login.
type LoginResponse struct {
	User  User
	Token TokenPair
}

// Status is the envelope "status" field. The API sends either a word
// ("success", "error") or a numeric code; both decode to their text.
type Status string

func (s *Status) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Status(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = Status(n.String())
	return nil
}

// Code returns the status as an HTTP code when it is numeric.
func (s Status) Code() (int, bool) {
	n, err := strconv.Atoi(string(s))
	return n, err == nil
}

// Envelope is the common response wrapper used by the API.
type Envelope struct {
	Success        *bool           `json:"success,omitempty"`
	Status         Status          `json:"status,omitempty"`
	Message        string          `json:"message,omitempty"`
	Error          string          `json:"error,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Existing       json.RawMessage `json:"existing,omitempty"`
	Token          *TokenPair      `json:"token,omitempty"`
	LockoutSeconds *int            `json:"lockout_seconds,omitempty"`
}

// Text returns the human readable message, preferring "message" over "error".
func (e *Envelope) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
