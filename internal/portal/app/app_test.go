package app_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/portal/internal/portal/app"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := app.LoadConfig()

		require.Equal(t, "http://localhost:3000/api", cfg.APIURL)
		require.Equal(t, 8090, cfg.Port)
		require.False(t, cfg.Embedded)
		require.Equal(t, "/login", cfg.Logout.LoginPath)
		require.Equal(t, 15*time.Minute, cfg.Session.InactivityBudget)
		require.Equal(t, 5*time.Minute, cfg.Session.WarningCountdown)
		require.Equal(t, 5, cfg.Resilience.Breaker.Threshold)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORTAL_API_URL", "https://ess.example.com/api")
		t.Setenv("PORTAL_EMBEDDED", "true")
		t.Setenv("PORTAL_REFERRER", "https://intranet.example.com/hr")
		t.Setenv("PORTAL_INACTIVITY_BUDGET", "30m")
		t.Setenv("PORTAL_WARNING_COUNTDOWN", "2")
		t.Setenv("PORTAL_BREAKER_THRESHOLD", "3")
		t.Setenv("PORT", "not-a-port")

		cfg := app.LoadConfig()

		require.Equal(t, "https://ess.example.com/api", cfg.APIURL)
		require.True(t, cfg.Logout.Embedded)
		require.Equal(t, "https://intranet.example.com/hr", cfg.Logout.Referrer)
		require.Equal(t, 30*time.Minute, cfg.Session.InactivityBudget)
		require.Equal(t, 2*time.Minute, cfg.Session.WarningCountdown)
		require.Equal(t, 3, cfg.Resilience.Breaker.Threshold)
		require.Equal(t, 8090, cfg.Port)
	})
}

func TestApplication(t *testing.T) {
	t.Setenv("PORTAL_MASTER_KEY", "0123456789abcdef0123456789abcdef")

	cfg := app.LoadConfig()
	cfg.DatabaseFile = filepath.Join(t.TempDir(), "portal.db")
	cfg.LogLevel = "error"

	application, err := app.New(cfg)
	require.NoError(t, err)

	t.Run("readyz reports the key store", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Status string `json:"status"`
			Checks struct {
				Database string `json:"database"`
			} `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "ok", body.Status)
		require.Equal(t, "ok", body.Checks.Database)
	})

	t.Run("no session before login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"state":"inactive"`)
	})

	t.Run("metrics include runtime collectors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
	})

	require.NoError(t, application.Shutdown())
}
