package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/portal/internal/portal/resilience"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

const (
	maxProxyBody = 1 << 20

	// HeaderBatchKey opts a call into request batching.
	HeaderBatchKey = "X-Batch-Key"
)

// ProxyHandler forwards /api/{path...} to the employee API through the
// resilience layer with the session's bearer token.
type ProxyHandler struct {
	Layer *resilience.Layer
	API   *portalsdk.Client
}

// ServeHTTP handles /api/{path}
//
//	@Summary		Call the employee API
//	@Description	Forwards the request to the employee API with the session's bearer token, through the rate limiter, circuit breaker and auth cooldown. Requests sharing an X-Batch-Key within the batch window are coalesced.
//	@Tags			API
//	@Accept			json
//	@Produce		json
//	@Param			path			path		string				true	"Employee API path"
//	@Param			X-Batch-Key		header		string				false	"Coalesce identical calls"
//	@Success		200				{object}	resilience.Result	"success, data, status"
//	@Failure		401				{object}	httpx.ErrorBody		"unauthorized"
//	@Failure		409				{object}	httpx.ErrorBody		"conflict"
//	@Failure		429				{object}	httpx.ErrorBody		"rate_limited"
//	@Failure		502				{object}	httpx.ErrorBody		"network, server"
//	@Failure		503				{object}	httpx.ErrorBody		"circuit_open, auth_cooldown_active"
//	@Failure		504				{object}	httpx.ErrorBody		"timeout"
//	@Router			/api/{path} [get]
//	@Router			/api/{path} [post]
//	@Router			/api/{path} [put]
//	@Router			/api/{path} [patch]
//	@Router			/api/{path} [delete].
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBody+1))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "unable to read request body")
		return
	}
	if len(body) > maxProxyBody {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request", "request body too large")
		return
	}

	endpoint := "/" + strings.TrimPrefix(r.PathValue("path"), "/")
	path := endpoint
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	req := portalsdk.Request{Method: r.Method, Path: path}
	if len(body) > 0 {
		req.Body = body
		req.Header = http.Header{"Content-Type": {r.Header.Get("Content-Type")}}
	}

	res, err := h.Layer.Execute(r.Context(), endpoint,
		func(ctx context.Context, token string) (*portalsdk.Response, error) {
			return h.API.Do(ctx, token, req)
		},
		resilience.Options{BatchKey: r.Header.Get(HeaderBatchKey), AuthClassified: true},
	)
	if err != nil {
		writeCallError(w, r, err)
		return
	}

	status := res.Status
	if res.Recovered || status == 0 {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, res)
}

// writeCallError maps a classified call failure to a shell response.
func writeCallError(w http.ResponseWriter, r *http.Request, err error) {
	var callErr *resilience.Error
	if !errors.As(err, &callErr) {
		slogx.FromContext(r.Context()).Error("api_call_failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "Something went wrong.")
		return
	}

	if callErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(callErr.RetryAfter.Seconds()+0.999)))
	}
	httpx.WriteError(w, statusFor(callErr), callErr.Kind.String(), callErr.UserMessage())
}

func statusFor(e *resilience.Error) int {
	switch e.Kind {
	case resilience.KindAuthCooldownActive, resilience.KindCircuitOpen:
		return http.StatusServiceUnavailable
	case resilience.KindRateLimited:
		return http.StatusTooManyRequests
	case resilience.KindTimeout:
		return http.StatusGatewayTimeout
	case resilience.KindNetwork, resilience.KindServer:
		return http.StatusBadGateway
	case resilience.KindUnauthorized:
		if e.Status == http.StatusForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case resilience.KindValidation:
		if e.Status != 0 {
			return e.Status
		}
		return http.StatusUnprocessableEntity
	case resilience.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
