package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/resilience"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/pkg/httpx"
)

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of the shell's dependencies.
type HealthChecks struct {
	Database string                      `json:"database"`
	Breaker  *resilience.BreakerSnapshot `json:"breaker,omitempty"`
}

// LivezHandler always reports ok while the process is serving.
//
//	@Summary	Liveness
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler checks the key store. An open breaker is reported but does
// not make the shell unready; the UI still needs it to show the error.
//
//	@Summary	Readiness
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse	"Key store unreachable"
//	@Router		/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store, layer *resilience.Layer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if st == nil {
			checks.Database = "disabled"
		} else if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if layer != nil {
			snap := layer.Breaker().Snapshot()
			checks.Breaker = &snap
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
