package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")

		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Real-IP", "203.0.113.2")

		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		limited := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(ok)

		for i := range 3 {
			req := httptest.NewRequest(http.MethodPost, "/session/login", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rec := httptest.NewRecorder()

			limited.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}

		req := httptest.NewRequest(http.MethodPost, "/session/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()

		limited.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), "rate_limited")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		limited := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(ok)

		for _, addr := range []string{"192.168.1.1:1", "192.168.1.2:1"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("allows request when key extractor returns empty", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		limited := httpx.RateLimitMiddleware(config, func(*http.Request) string { return "" })(ok)

		for range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestParseRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_TEST_REQUESTS", "7")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
	t.Setenv("RATELIMIT_TEST_BURST", "bogus")

	config := httpx.ParseRateLimitFromEnv("TEST", httpx.RateLimitConfig{
		RequestsPerWindow: 1,
		Window:            time.Minute,
		Burst:             2,
	})

	require.Equal(t, 7, config.RequestsPerWindow)
	require.Equal(t, 30*time.Second, config.Window)
	require.Equal(t, 2, config.Burst)
}

func TestWindowLimiter(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("rejects the call past capacity", func(t *testing.T) {
		l := httpx.NewWindowLimiter(httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute})

		for i := range 3 {
			ok, _ := l.Allow("/employee/profile", start.Add(time.Duration(i)*time.Second))
			require.True(t, ok)
		}

		ok, retry := l.Allow("/employee/profile", start.Add(10*time.Second))
		require.False(t, ok)
		require.Equal(t, 50*time.Second, retry)
	})

	t.Run("capacity returns once the oldest call leaves the window", func(t *testing.T) {
		l := httpx.NewWindowLimiter(httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute})

		ok, _ := l.Allow("/leave", start)
		require.True(t, ok)
		ok, _ = l.Allow("/leave", start.Add(30*time.Second))
		require.True(t, ok)

		ok, _ = l.Allow("/leave", start.Add(59*time.Second))
		require.False(t, ok)

		ok, _ = l.Allow("/leave", start.Add(time.Minute))
		require.True(t, ok)
		require.Equal(t, 2, l.Count("/leave", start.Add(time.Minute)))
	})

	t.Run("rejected calls are not recorded", func(t *testing.T) {
		l := httpx.NewWindowLimiter(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute})

		ok, _ := l.Allow("/a", start)
		require.True(t, ok)
		for range 5 {
			ok, _ = l.Allow("/a", start.Add(time.Second))
			require.False(t, ok)
		}
		require.Equal(t, 1, l.Count("/a", start.Add(time.Second)))
	})

	t.Run("zero capacity admits one call per window", func(t *testing.T) {
		for _, n := range []int{0, -5} {
			l := httpx.NewWindowLimiter(httpx.RateLimitConfig{RequestsPerWindow: n, Window: time.Minute})

			require.NotPanics(t, func() {
				ok, _ := l.Allow("/a", start)
				require.True(t, ok)

				ok, retry := l.Allow("/a", start.Add(time.Second))
				require.False(t, ok)
				require.Equal(t, 59*time.Second, retry)
			})
		}
	})

	t.Run("endpoints are independent and empty windows are dropped", func(t *testing.T) {
		l := httpx.NewWindowLimiter(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute})

		ok, _ := l.Allow("/a", start)
		require.True(t, ok)
		ok, _ = l.Allow("/b", start)
		require.True(t, ok)
		require.Equal(t, 2, l.Keys())

		require.Equal(t, 0, l.Count("/a", start.Add(2*time.Minute)))
		require.Equal(t, 1, l.Keys())
	})
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}
