// Package resilience is the admission and classification layer in front of
// every outbound API call. It never retries.
package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
	"github.com/aussiebroadwan/portal/pkg/timerx"
)

// TokenSource supplies the bearer token for a call.
type TokenSource interface {
	ValidToken(ctx context.Context) (string, bool)
}

// CooldownGate reports whether auth-classified calls are blocked.
type CooldownGate interface {
	AuthCooldown(now time.Time) (time.Duration, bool)
}

// OutcomeClass groups call outcomes for the session controller.
type OutcomeClass int

const (
	OutcomeSuccess OutcomeClass = iota
	OutcomeAuthFailure
	OutcomeGeneralFailure
	OutcomeClientError
)

// Outcome describes a call that reached the network.
type Outcome struct {
	Endpoint string
	Class    OutcomeClass
	Status   int
	At       time.Time
}

// OutcomeReporter receives the outcome of every call that reached the network.
type OutcomeReporter interface {
	ReportOutcome(Outcome)
}

// Func performs the wrapped call. token is empty for calls made without a
// session.
type Func func(ctx context.Context, token string) (*portalsdk.Response, error)

// Options tune a single Execute call.
type Options struct {
	// BatchKey coalesces calls sharing the key inside the batch window
	BatchKey string
	// AuthClassified calls are subject to the auth cooldown and need a token
	AuthClassified bool
}

// Result is a call that produced a response and no classified error.
type Result struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Status    int             `json:"status"`
	Recovered bool            `json:"recovered,omitempty"`
}

// Config tunes the layer.
type Config struct {
	Breaker     BreakerConfig
	RateLimit   httpx.RateLimitConfig
	Timeout     TimeoutConfig
	BatchWindow time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Breaker:     BreakerConfig{Threshold: 5, Timeout: 30 * time.Second},
		RateLimit:   httpx.APILimit,
		Timeout:     TimeoutConfig{Default: 30 * time.Second, Min: 5 * time.Second, Samples: 20},
		BatchWindow: 50 * time.Millisecond,
	}
}

// Deps are the layer's collaborators. Tokens, Reporter and Gate are usually
// the session controller.
type Deps struct {
	Clock    timerx.Clock
	Logger   *slog.Logger
	Tokens   TokenSource
	Reporter OutcomeReporter
	Gate     CooldownGate
	Metrics  *Metrics
}

// Layer wraps outbound calls with admission control and classifies their
// outcomes.
type Layer struct {
	clock    timerx.Clock
	log      *slog.Logger
	tokens   TokenSource
	reporter OutcomeReporter
	gate     CooldownGate
	metrics  *Metrics

	breaker *Breaker
	limiter *httpx.WindowLimiter
	timeout *AdaptiveTimeout
	batcher *Coalescer
}

func New(cfg Config, deps Deps) *Layer {
	clock := deps.Clock
	if clock == nil {
		clock = timerx.Real()
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	l := &Layer{
		clock:    clock,
		log:      log,
		tokens:   deps.Tokens,
		reporter: deps.Reporter,
		gate:     deps.Gate,
		metrics:  deps.Metrics,
		limiter:  httpx.NewWindowLimiter(cfg.RateLimit),
		timeout:  NewAdaptiveTimeout(cfg.Timeout),
		batcher:  NewCoalescer(clock, cfg.BatchWindow),
	}
	l.breaker = NewBreaker(cfg.Breaker, clock, l.breakerChanged)
	return l
}

// Breaker exposes the layer's circuit breaker.
func (l *Layer) Breaker() *Breaker { return l.breaker }

// Timeout exposes the adaptive timeout estimator.
func (l *Layer) Timeout() *AdaptiveTimeout { return l.timeout }

// Pending returns the number of calls waiting in the batch for key.
func (l *Layer) Pending(key string) int { return l.batcher.Pending(key) }

// Execute runs fn through the gates in order: auth cooldown, circuit
// breaker, rate limit, batching, adaptive timeout. A non-nil error is always
// a *Error.
func (l *Layer) Execute(ctx context.Context, endpoint string, fn Func, opts Options) (*Result, error) {
	now := l.clock.Now()

	if opts.AuthClassified && l.gate != nil {
		if remaining, active := l.gate.AuthCooldown(now); active {
			return nil, l.refuse(endpoint, &Error{Kind: KindAuthCooldownActive, Endpoint: endpoint, RetryAfter: remaining})
		}
	}

	if wait, ok := l.breaker.Allow(); !ok {
		return nil, l.refuse(endpoint, &Error{Kind: KindCircuitOpen, Endpoint: endpoint, RetryAfter: wait})
	}

	if ok, retry := l.limiter.Allow(endpoint, now); !ok {
		l.breaker.Release()
		return nil, l.refuse(endpoint, &Error{Kind: KindRateLimited, Endpoint: endpoint, RetryAfter: retry})
	}

	if opts.BatchKey == "" {
		return l.execute(ctx, endpoint, fn, opts)
	}

	var (
		res *Result
		err error
	)
	if werr := l.batcher.Do(ctx, opts.BatchKey, func() {
		res, err = l.execute(ctx, endpoint, fn, opts)
	}); werr != nil {
		l.breaker.Release()
		return nil, l.refuse(endpoint, contextError(endpoint, werr))
	}
	return res, err
}

func (l *Layer) execute(ctx context.Context, endpoint string, fn Func, opts Options) (*Result, error) {
	var token string
	if l.tokens != nil {
		if tok, ok := l.tokens.ValidToken(ctx); ok {
			token = tok
		}
	}
	if token == "" && opts.AuthClassified {
		l.breaker.Release()
		return nil, l.refuse(endpoint, &Error{Kind: KindUnauthorized, Endpoint: endpoint, Message: "no valid session"})
	}

	timeout := l.timeout.Timeout()
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := l.clock.Now()
	resp, err := fn(cctx, token)
	latency := l.clock.Now().Sub(start)

	if err != nil {
		return nil, l.classifyTransport(ctx, endpoint, err, latency, timeout)
	}
	return l.classify(endpoint, resp, latency)
}

func (l *Layer) classifyTransport(ctx context.Context, endpoint string, err error, latency, timeout time.Duration) error {
	log := slogx.FromContext(ctx)

	// The caller gave up; this says nothing about the backend.
	if ctx.Err() != nil {
		l.breaker.Release()
		l.metrics.observe(endpoint, "cancelled", latency, false)
		return contextError(endpoint, ctx.Err())
	}

	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}

	l.breaker.Failure()
	l.report(endpoint, OutcomeGeneralFailure, 0)
	l.metrics.observe(endpoint, kind.String(), latency, true)
	log.Warn("api call failed", "endpoint", endpoint, "kind", kind.String(), "timeout", timeout, "error", err)

	return &Error{Kind: kind, Endpoint: endpoint, Err: err}
}

func (l *Layer) classify(endpoint string, resp *portalsdk.Response, latency time.Duration) (*Result, error) {
	status := resp.Status

	switch {
	case status >= 200 && status < 300:
		l.breaker.Success()
		l.timeout.Record(latency)
		l.report(endpoint, OutcomeSuccess, status)
		l.metrics.observe(endpoint, "success", latency, true)
		return &Result{Success: true, Data: payload(resp.Body), Status: status}, nil

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		l.breaker.Release()
		l.report(endpoint, OutcomeAuthFailure, status)
		l.metrics.observe(endpoint, KindUnauthorized.String(), latency, true)
		return nil, &Error{Kind: KindUnauthorized, Endpoint: endpoint, Status: status, Message: message(resp.Body)}

	case status >= 500:
		l.breaker.Failure()
		l.report(endpoint, OutcomeGeneralFailure, status)
		l.metrics.observe(endpoint, KindServer.String(), latency, true)
		return nil, &Error{Kind: KindServer, Endpoint: endpoint, Status: status, Message: message(resp.Body)}
	}

	// Remaining statuses show a healthy backend.
	l.breaker.Success()

	switch status {
	case http.StatusConflict:
		if entity, ok := portalsdk.RecoverableConflict(resp.Body); ok {
			l.report(endpoint, OutcomeSuccess, status)
			l.metrics.observe(endpoint, KindConflictRecovered.String(), latency, true)
			l.log.Info("conflict_recovered", "endpoint", endpoint)
			return &Result{Success: true, Data: entity, Status: status, Recovered: true}, nil
		}
		l.report(endpoint, OutcomeClientError, status)
		l.metrics.observe(endpoint, KindConflict.String(), latency, true)
		return nil, &Error{Kind: KindConflict, Endpoint: endpoint, Status: status, Message: message(resp.Body)}

	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		l.report(endpoint, OutcomeClientError, status)
		l.metrics.observe(endpoint, KindValidation.String(), latency, true)
		return nil, &Error{Kind: KindValidation, Endpoint: endpoint, Status: status, Message: message(resp.Body)}

	case http.StatusTooManyRequests:
		l.report(endpoint, OutcomeClientError, status)
		l.metrics.observe(endpoint, KindRateLimited.String(), latency, true)
		return nil, &Error{
			Kind:       KindRateLimited,
			Endpoint:   endpoint,
			Status:     status,
			Message:    message(resp.Body),
			RetryAfter: retryAfter(resp.Header),
		}
	}

	l.report(endpoint, OutcomeClientError, status)
	l.metrics.observe(endpoint, strconv.Itoa(status), latency, true)
	return &Result{Success: false, Data: payload(resp.Body), Status: status}, nil
}

func (l *Layer) refuse(endpoint string, err *Error) *Error {
	l.metrics.observe(endpoint, err.Kind.String(), 0, false)
	l.log.Debug("api call refused", "endpoint", endpoint, "kind", err.Kind.String(), "retry_after", err.RetryAfter)
	return err
}

func (l *Layer) report(endpoint string, class OutcomeClass, status int) {
	if l.reporter == nil {
		return
	}
	l.reporter.ReportOutcome(Outcome{Endpoint: endpoint, Class: class, Status: status, At: l.clock.Now()})
}

func (l *Layer) breakerChanged(from, to State) {
	l.metrics.breakerChanged(from, to)
	l.log.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
}

func contextError(endpoint string, err error) *Error {
	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Endpoint: endpoint, Err: err}
}

// payload returns the envelope's data when the body is an envelope carrying
// one, else the body itself when it is JSON.
func payload(body []byte) json.RawMessage {
	var env portalsdk.Envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	if json.Valid(body) {
		return body
	}
	return nil
}

func message(body []byte) string {
	var env portalsdk.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Text()
}

func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
