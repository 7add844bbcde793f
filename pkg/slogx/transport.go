package slogx

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/pkg/idx"
)

// Transport is an http.RoundTripper that stamps outbound API calls with an
// X-Request-ID and logs their outcome using the request context's logger.
type Transport struct {
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	reqID := req.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = idx.New().String()
		req = req.Clone(req.Context())
		req.Header.Set("X-Request-ID", reqID)
	}

	log := FromContext(req.Context()).With(
		"req_id", reqID,
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Warn("api_request_failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	log.Debug("api_request",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}
