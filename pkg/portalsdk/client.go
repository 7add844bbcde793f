package portalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// ErrMissingToken is returned when a successful auth response has no token.
var ErrMissingToken = errors.New("portalsdk: response carries no access token")

// Client is a client for the employee self-service API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client whose transport logs every call.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &slogx.Transport{},
		},
	}
}

// Request describes a call made through Do.
type Request struct {
	Method string
	Path   string
	// Body is JSON encoded unless it is already a []byte or nil
	Body   any
	Header http.Header
}

// Response is the raw outcome of a call made through Do.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Envelope decodes the body as the common response wrapper.
func (r *Response) Envelope() (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &env, nil
}

// Login exchanges credentials for a token pair and the user profile.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.Do(ctx, "", Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}
	if apiErr := parseErrorResponse(resp.Status, resp.Body); apiErr != nil {
		return nil, apiErr
	}

	env, err := resp.Envelope()
	if err != nil {
		return nil, err
	}
	if env.Token == nil || env.Token.AccessToken == "" {
		return nil, ErrMissingToken
	}

	out := &LoginResponse{Token: *env.Token}
	if present(env.Data) {
		if err := json.Unmarshal(env.Data, &out.User); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
	}
	return out, nil
}

// Refresh exchanges a refresh token for a new pair. A rejected refresh token
// is an *APIError with StatusCode 401.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	resp, err := c.Do(ctx, "", Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Body:   RefreshRequest{RefreshToken: refreshToken},
	})
	if err != nil {
		return nil, err
	}
	if apiErr := parseErrorResponse(resp.Status, resp.Body); apiErr != nil {
		return nil, apiErr
	}

	env, err := resp.Envelope()
	if err != nil {
		return nil, err
	}
	if env.Token == nil || env.Token.AccessToken == "" {
		return nil, ErrMissingToken
	}

	pair := *env.Token
	if pair.RefreshToken == "" {
		// Servers that do not rotate refresh tokens omit it.
		pair.RefreshToken = refreshToken
	}
	return &pair, nil
}

// Do performs a request, attaching token as a bearer credential when set.
// Any HTTP status is returned as a Response; only transport failures are
// errors.
func (c *Client) Do(ctx context.Context, token string, r Request) (*Response, error) {
	body, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.url(r.Path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

func encodeBody(v any) (io.Reader, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(b) == 0 {
			return nil, nil
		}
		return bytes.NewReader(b), nil
	case json.RawMessage:
		if len(b) == 0 {
			return nil, nil
		}
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}
