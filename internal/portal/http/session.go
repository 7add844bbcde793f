package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/portal/internal/portal/activity"
	"github.com/aussiebroadwan/portal/internal/portal/logout"
	"github.com/aussiebroadwan/portal/internal/portal/session"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// SessionHandler serves the /session endpoints.
type SessionHandler struct {
	Session *session.Controller
	Logout  *logout.Coordinator
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   *portalsdk.User `json:"user"`
	Status session.Status  `json:"status"`
}

type lockoutResponse struct {
	httpx.ErrorBody
	LockoutSeconds int `json:"lockout_seconds"`
}

// HandleLogin handles POST /session/login
//
//	@Summary		Sign in
//	@Description	Authenticates against the employee API, persists the session keys and starts inactivity monitoring. A lockout reported by the API is returned as 423 with the remaining seconds.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest		true	"Employee credentials"
//	@Success		200		{object}	loginResponse		"Signed-in user and session status"
//	@Failure		400		{object}	httpx.ErrorBody		"error, message"
//	@Failure		401		{object}	httpx.ErrorBody		"Invalid credentials"
//	@Failure		423		{object}	lockoutResponse		"Login locked out"
//	@Failure		429		{object}	httpx.ErrorBody		"Too many login attempts from this address"
//	@Failure		502		{object}	httpx.ErrorBody		"Employee API unavailable"
//	@Router			/session/login [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be {email, password}")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	user, err := h.Session.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var lockout *session.LockoutError
		var apiErr *portalsdk.APIError
		switch {
		case errors.As(err, &lockout):
			seconds := int(lockout.Remaining.Seconds() + 0.5)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			httpx.WriteJSON(w, http.StatusLocked, lockoutResponse{
				ErrorBody:      httpx.ErrorBody{Error: "locked_out", Message: lockout.Error()},
				LockoutSeconds: seconds,
			})
		case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
			httpx.WriteError(w, apiErr.StatusCode, "login_failed", apiErr.Message)
		default:
			slogx.FromContext(r.Context()).Error("login_failed", "error", err)
			httpx.WriteError(w, http.StatusBadGateway, "upstream_error", "Unable to sign in right now. Please try again later.")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{User: user, Status: h.Session.Status()})
}

// HandleLogout handles POST /session/logout
//
//	@Summary	Sign out
//	@Tags		Session
//	@Success	204	"Session keys cleared"
//	@Router		/session/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Logout.Logout(r.Context(), session.ReasonExplicit)
	w.WriteHeader(http.StatusNoContent)
}

// HandleExtend handles POST /session/extend
//
//	@Summary		Extend the session
//	@Description	Refreshes the access token and opens a new inactivity window. A rejected refresh token ends the session.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	session.Status		"Session status after the refresh"
//	@Failure		401	{object}	httpx.ErrorBody		"No session, or the session has expired"
//	@Failure		503	{object}	httpx.ErrorBody		"Refresh failed, the session is unchanged"
//	@Router			/session/extend [post].
func (h *SessionHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	err := h.Session.ExtendSession(r.Context())
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, h.Session.Status())
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrStaleSession):
		httpx.WriteError(w, http.StatusUnauthorized, "no_session", "There is no active session.")
	case errors.Is(err, session.ErrRefreshRejected):
		httpx.WriteError(w, http.StatusUnauthorized, "session_expired", "Your session has expired. Please sign in again.")
	default:
		httpx.WriteError(w, http.StatusServiceUnavailable, "extend_failed", "Unable to extend the session. Please try again.")
	}
}

type activityRequest struct {
	Kind string `json:"kind"`
}

type activityResponse struct {
	Updated bool `json:"updated"`
}

// HandleActivity handles POST /session/activity
//
//	@Summary		Report user activity
//	@Description	Records a throttled activity signal. updated is false when the signal was throttled or ignored.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		activityRequest		true	"Activity kind (click, key, scroll, touch, pointermove)"
//	@Success		202		{object}	activityResponse
//	@Failure		400		{object}	httpx.ErrorBody		"Unknown activity kind"
//	@Router			/session/activity [post].
func (h *SessionHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be {kind}")
		return
	}
	kind, err := activity.ParseKind(req.Kind)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	updated := h.Session.Monitor().RecordActivity(kind)
	httpx.WriteJSON(w, http.StatusAccepted, activityResponse{Updated: updated})
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

// HandleVisibility handles POST /session/visibility
//
//	@Summary	Report page visibility
//	@Tags		Session
//	@Accept		json
//	@Param		request	body	visibilityRequest	true	"Whether the page is visible"
//	@Success	204
//	@Failure	400	{object}	httpx.ErrorBody
//	@Router		/session/visibility [post].
func (h *SessionHandler) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be {visible}")
		return
	}

	h.Session.VisibilityChanged(req.Visible)
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus handles GET /session/status
//
//	@Summary	Session status
//	@Tags		Session
//	@Produce	json
//	@Success	200	{object}	session.Status
//	@Router		/session/status [get].
func (h *SessionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Session.Status())
}
