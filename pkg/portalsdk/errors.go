package portalsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// Message is the server supplied message, or the status text
	Message string

	// LockoutSeconds is the structured lockout duration, if the server sent one
	LockoutSeconds *int

	// Body is the raw response body
	Body []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Unauthorized reports whether the server rejected the credentials.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Lockout returns the login lockout the error describes, if any.
func (e *APIError) Lockout() (time.Duration, bool) {
	return ParseLockout(e.StatusCode, e.LockoutSeconds, e.Message)
}

// parseErrorResponse builds an APIError from a non-2xx response. Returns nil
// for 2xx statuses.
func parseErrorResponse(status int, body []byte) *APIError {
	if status >= 200 && status < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: status, Body: body}

	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Message = env.Text()
		apiErr.LockoutSeconds = env.LockoutSeconds
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// RecoverableConflict inspects a 409 body. The write is treated as already
// applied when the message says the record already exists and the body
// carries the existing entity under "data" or "existing".
func RecoverableConflict(body []byte) (json.RawMessage, bool) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, false
	}

	if !strings.Contains(strings.ToLower(env.Text()), "already exists") {
		return nil, false
	}

	for _, entity := range []json.RawMessage{env.Data, env.Existing} {
		if present(entity) {
			return entity, true
		}
	}
	return nil, false
}

func present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}
