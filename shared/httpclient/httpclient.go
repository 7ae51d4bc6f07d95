// Package httpclient sends outbound provider requests with bounded retries.
//
// A 2xx response returns at once. 429 and 5xx responses and transport errors are retried
// with exponential backoff plus jitter, honoring a Retry-After header when the provider sends one.
// Any other status is returned to the caller without a retry.
package httpclient

//go:generate go run go.uber.org/mock/mockgen -source=./httpclient.go -destination=./mocks/httpclient_mock.go -package=mocks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"retreat/config"
	"retreat/infras/otel"
	"retreat/shared/constant"
	"retreat/shared/logger"
)

const maxJitter = 150 * time.Millisecond

// Policy bounds the retry budget: Retries extra attempts after the first one.
type Policy struct {
	Retries  int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NoRetry sends exactly once.
var NoRetry = Policy{}

func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		Retries:  cfg.Retry.Attempts,
		MinDelay: time.Duration(cfg.Retry.MinDelayMs) * time.Millisecond,
		MaxDelay: time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
	}
}

// Backoff is min(MaxDelay, MinDelay*2^attempt) for a zero-based attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	delay := p.MinDelay
	for range attempt {
		if delay >= p.MaxDelay {
			break
		}

		delay *= 2
	}

	return min(delay, p.MaxDelay)
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is what provider adapters depend on.
type Client interface {
	Send(ctx context.Context, req *http.Request, policy Policy) (*http.Response, error)
}

type ResilientClient struct {
	doer   Doer
	otel   otel.Otel
	sleep  func(ctx context.Context, delay time.Duration) error
	jitter func() time.Duration
}

type Option func(*ResilientClient)

func WithDoer(doer Doer) Option {
	return func(c *ResilientClient) { c.doer = doer }
}

// WithSleep replaces the context-aware sleep, mainly so tests can record delays.
func WithSleep(sleep func(ctx context.Context, delay time.Duration) error) Option {
	return func(c *ResilientClient) { c.sleep = sleep }
}

func WithJitter(jitter func() time.Duration) Option {
	return func(c *ResilientClient) { c.jitter = jitter }
}

func New(cfg *config.Config, ot otel.Otel, opts ...Option) *ResilientClient {
	client := &ResilientClient{
		doer:   &http.Client{Timeout: time.Duration(cfg.Retry.TimeoutSeconds) * time.Second},
		otel:   ot,
		sleep:  sleepContext,
		jitter: randomJitter,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// NewClient exposes a ResilientClient through the Client interface for wiring.
func NewClient(cfg *config.Config, ot otel.Otel) Client {
	return New(cfg, ot)
}

// Send performs req under policy. After the budget is spent on retryable statuses the last
// response is returned rather than an error; a transport error on the final attempt is returned as is.
// The caller owns the returned body.
func (c *ResilientClient) Send(ctx context.Context, req *http.Request, policy Policy) (resp *http.Response, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".Send")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		"http.method": req.Method,
		"http.host":   req.URL.Host,
		"http.path":   req.URL.Path,
	})

	if err = bufferBody(req); err != nil {
		return nil, err
	}

	retries := max(policy.Retries, 0)

	for attempt := 0; ; attempt++ {
		resp, err = c.do(ctx, req)

		var delay time.Duration

		switch {
		case err != nil:
			if attempt >= retries || ctx.Err() != nil {
				return nil, err
			}

			delay = policy.Backoff(attempt) + c.jitter()

			logger.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("Network error, retrying")
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			scope.SetAttribute("http.status_code", resp.StatusCode)

			return resp, nil
		case !Retryable(resp.StatusCode) || attempt >= retries:
			scope.SetAttribute("http.status_code", resp.StatusCode)

			return resp, nil
		default:
			retryAfter, ok := RetryAfter(resp.Header.Get(constant.RequestHeaderRetryAfter), time.Now())
			if ok {
				delay = retryAfter
			} else {
				delay = policy.Backoff(attempt) + c.jitter()
			}

			drain(resp)

			logger.Ctx(ctx).Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Dur("delay", delay).Msg("Upstream retryable response")
		}

		scope.AddEvent("retry")

		if err = c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry aborted: %w", err)
		}
	}
}

func (c *ResilientClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	attemptReq := req.Clone(ctx)

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}

		attemptReq.Body = body
	}

	resp, err := c.doer.Do(attemptReq)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", req.Method, req.URL.Redacted(), err)
	}

	return resp, nil
}

// Retryable reports whether a status is worth another attempt.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

// RetryAfter parses a Retry-After value given in seconds or as an HTTP date.
func RetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}

		return time.Duration(seconds) * time.Second, true
	}

	if at, err := http.ParseTime(value); err == nil {
		return max(at.Sub(now), 0), true
	}

	return 0, false
}

// bufferBody makes the body replayable for every attempt.
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("failed to buffer request body: %w", err)
	}

	_ = req.Body.Close()

	req.ContentLength = int64(len(payload))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	req.Body, _ = req.GetBody()

	return nil
}

func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter() time.Duration {
	return rand.N(maxJitter)
}

// ReadBody reads and closes a response body, capped at 1 MiB.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return payload, nil
}
