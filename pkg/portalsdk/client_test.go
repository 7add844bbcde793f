package portalsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *portalsdk.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return portalsdk.NewClient(srv.URL)
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/auth/login", r.URL.Path)
			require.Empty(t, r.Header.Get("Authorization"))

			var req portalsdk.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "jo@example.com", req.Email)
			require.Equal(t, "hunter2", req.Password)

			_, _ = w.Write([]byte(`{"status":"success","data":{"id":"u1","email":"jo@example.com","name":"Jo"},
				"token":{"access_token":"acc","refresh_token":"ref"}}`))
		})

		resp, err := client.Login(context.Background(), "jo@example.com", "hunter2")
		require.NoError(t, err)
		require.Equal(t, "acc", resp.Token.AccessToken)
		require.Equal(t, "ref", resp.Token.RefreshToken)
		require.Equal(t, "Jo", resp.User.Name)
	})

	t.Run("lockout seconds", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":"error","message":"Too many attempts","lockout_seconds":120}`))
		})

		_, err := client.Login(context.Background(), "jo@example.com", "bad")

		var apiErr *portalsdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)

		d, locked := apiErr.Lockout()
		require.True(t, locked)
		require.Equal(t, 2*time.Minute, d)
	})

	t.Run("bad credentials are not a lockout", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","message":"Invalid email or password"}`))
		})

		_, err := client.Login(context.Background(), "jo@example.com", "bad")

		var apiErr *portalsdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.True(t, apiErr.Unauthorized())
		require.Equal(t, "Invalid email or password", apiErr.Message)

		_, locked := apiErr.Lockout()
		require.False(t, locked)
	})

	t.Run("missing token", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"success","data":{}}`))
		})

		_, err := client.Login(context.Background(), "jo@example.com", "x")
		require.ErrorIs(t, err, portalsdk.ErrMissingToken)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("rotates the pair", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/refresh", r.URL.Path)

			var req portalsdk.RefreshRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "ref-1", req.RefreshToken)

			_, _ = w.Write([]byte(`{"status":200,"token":{"access_token":"acc-2","refresh_token":"ref-2"}}`))
		})

		pair, err := client.Refresh(context.Background(), "ref-1")
		require.NoError(t, err)
		require.Equal(t, portalsdk.TokenPair{AccessToken: "acc-2", RefreshToken: "ref-2"}, *pair)
	})

	t.Run("keeps refresh token when not rotated", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"success","token":{"access_token":"acc-2"}}`))
		})

		pair, err := client.Refresh(context.Background(), "ref-1")
		require.NoError(t, err)
		require.Equal(t, "ref-1", pair.RefreshToken)
	})

	t.Run("rejected refresh token", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.Refresh(context.Background(), "ref-1")

		var apiErr *portalsdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.True(t, apiErr.Unauthorized())
		require.Equal(t, "Unauthorized", apiErr.Message)
	})

	t.Run("transport failure is not an api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		client := portalsdk.NewClient(srv.URL)
		srv.Close()

		_, err := client.Refresh(context.Background(), "ref-1")
		require.Error(t, err)

		var apiErr *portalsdk.APIError
		require.False(t, errors.As(err, &apiErr))
	})
}

func TestDo(t *testing.T) {
	t.Run("attaches bearer and passes statuses through", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
			require.Equal(t, "/employee/profile", r.URL.Path)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"maintenance"}`))
		})

		resp, err := client.Do(context.Background(), "acc", portalsdk.Request{
			Method: http.MethodPut,
			Path:   "employee/profile",
			Body:   map[string]string{"phone": "0400 000 000"},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusServiceUnavailable, resp.Status)

		env, err := resp.Envelope()
		require.NoError(t, err)
		require.Equal(t, "maintenance", env.Text())
	})

	t.Run("raw body is sent verbatim", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			var m map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
			require.Equal(t, 1, m["a"])
			w.WriteHeader(http.StatusCreated)
		})

		resp, err := client.Do(context.Background(), "", portalsdk.Request{
			Method: http.MethodPost,
			Path:   "/x",
			Body:   []byte(`{"a":1}`),
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.Status)
	})
}

func TestRecoverableConflict(t *testing.T) {
	t.Run("data entity", func(t *testing.T) {
		entity, ok := portalsdk.RecoverableConflict([]byte(
			`{"success":false,"message":"Bank account already exists","data":{"id":"ba-1"}}`))
		require.True(t, ok)
		require.JSONEq(t, `{"id":"ba-1"}`, string(entity))
	})

	t.Run("existing entity and case insensitive message", func(t *testing.T) {
		entity, ok := portalsdk.RecoverableConflict([]byte(
			`{"error":"Record ALREADY EXISTS","existing":{"id":"e-9"}}`))
		require.True(t, ok)
		require.JSONEq(t, `{"id":"e-9"}`, string(entity))
	})

	t.Run("message without entity", func(t *testing.T) {
		_, ok := portalsdk.RecoverableConflict([]byte(`{"message":"already exists","data":null}`))
		require.False(t, ok)
	})

	t.Run("other conflict", func(t *testing.T) {
		_, ok := portalsdk.RecoverableConflict([]byte(`{"message":"version mismatch","data":{"id":"x"}}`))
		require.False(t, ok)
	})

	t.Run("not json", func(t *testing.T) {
		_, ok := portalsdk.RecoverableConflict([]byte(`<html>`))
		require.False(t, ok)
	})
}
