package httpclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"retreat/config"
	otelMocks "retreat/infras/otel/mocks"
	"retreat/shared/httpclient"
	"retreat/shared/httpclient/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const fixedJitter = 42 * time.Millisecond

var policy = httpclient.Policy{Retries: 3, MinDelay: 250 * time.Millisecond, MaxDelay: 2000 * time.Millisecond}

type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, delay time.Duration) error {
	r.delays = append(r.delays, delay)

	return nil
}

func newClient(rec *recorder, opts ...httpclient.Option) *httpclient.ResilientClient {
	cfg := &config.Config{}
	cfg.Retry.TimeoutSeconds = 5

	opts = append([]httpclient.Option{
		httpclient.WithSleep(rec.sleep),
		httpclient.WithJitter(func() time.Duration { return fixedJitter }),
	}, opts...)

	return httpclient.New(cfg, otelMocks.NewOtel(), opts...)
}

// scripted answers with the given statuses in order and repeats the last one.
func scripted(t *testing.T, statuses []int, header http.Header) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(atomic.AddInt32(&calls, 1)) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"amount":10330}`, string(body), "body must be replayed on every attempt")

		for key, values := range header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		w.WriteHeader(statuses[idx])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	t.Cleanup(server.Close)

	return server, &calls
}

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(`{"amount":10330}`))
	require.NoError(t, err)

	return req
}

func TestSend_TransientFailuresThenSuccess(t *testing.T) {
	server, calls := scripted(t, []int{503, 502, 500, 200}, nil)
	rec := &recorder{}

	resp, err := newClient(rec).Send(context.Background(), newRequest(t, server.URL), policy)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
	assert.Equal(t, []time.Duration{
		250*time.Millisecond + fixedJitter,
		500*time.Millisecond + fixedJitter,
		1000*time.Millisecond + fixedJitter,
	}, rec.delays)
}

func TestSend_HonorsRetryAfter(t *testing.T) {
	server, calls := scripted(t, []int{429, 200}, http.Header{"Retry-After": []string{"2"}})
	rec := &recorder{}

	resp, err := newClient(rec).Send(context.Background(), newRequest(t, server.URL), policy)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.delays)
}

func TestSend_NonRetryableShortCircuits(t *testing.T) {
	for _, status := range []int{400, 401, 404, 409, 422} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server, calls := scripted(t, []int{status}, nil)
			rec := &recorder{}

			resp, err := newClient(rec).Send(context.Background(), newRequest(t, server.URL), policy)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, status, resp.StatusCode)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
			assert.Empty(t, rec.delays)
		})
	}
}

func TestSend_ExhaustedReturnsLastResponse(t *testing.T) {
	server, calls := scripted(t, []int{500}, nil)
	rec := &recorder{}

	resp, err := newClient(rec).Send(context.Background(), newRequest(t, server.URL), httpclient.Policy{Retries: 2, MinDelay: 100 * time.Millisecond, MaxDelay: time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Len(t, rec.delays, 2)
}

func TestSend_NoRetryPolicy(t *testing.T) {
	server, calls := scripted(t, []int{503}, nil)
	rec := &recorder{}

	resp, err := newClient(rec).Send(context.Background(), newRequest(t, server.URL), httpclient.NoRetry)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Empty(t, rec.delays)
}

func TestSend_NetworkErrors(t *testing.T) {
	ok := func() *http.Response {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}")), Header: http.Header{}}
	}

	t.Run("retried then succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		doer := mocks.NewMockDoer(ctrl)
		rec := &recorder{}

		gomock.InOrder(
			doer.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection reset")),
			doer.EXPECT().Do(gomock.Any()).Return(ok(), nil),
		)

		resp, err := newClient(rec, httpclient.WithDoer(doer)).Send(context.Background(), newRequest(t, "https://provider.test/v1"), policy)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, []time.Duration{250*time.Millisecond + fixedJitter}, rec.delays)
	})

	t.Run("final attempt error propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		doer := mocks.NewMockDoer(ctrl)
		rec := &recorder{}

		sentinel := errors.New("dial tcp: timeout")
		doer.EXPECT().Do(gomock.Any()).Return(nil, sentinel).Times(2)

		resp, err := newClient(rec, httpclient.WithDoer(doer)).Send(context.Background(), newRequest(t, "https://provider.test/v1"), httpclient.Policy{Retries: 1, MinDelay: time.Millisecond, MaxDelay: time.Millisecond})

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, sentinel)
		assert.Len(t, rec.delays, 1)
	})
}

func TestSend_CancelledDuringBackoff(t *testing.T) {
	server, calls := scripted(t, []int{503}, nil)

	cfg := &config.Config{}
	client := httpclient.New(cfg, otelMocks.NewOtel())

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for atomic.LoadInt32(calls) == 0 {
			time.Sleep(time.Millisecond)
		}

		cancel()
	}()

	resp, err := client.Send(ctx, newRequest(t, server.URL), httpclient.Policy{Retries: 5, MinDelay: time.Minute, MaxDelay: time.Minute})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestPolicy_Backoff(t *testing.T) {
	expected := []time.Duration{250, 500, 1000, 2000, 2000, 2000}

	for attempt, want := range expected {
		assert.Equal(t, want*time.Millisecond, policy.Backoff(attempt), "attempt %d", attempt)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Retry.Attempts = 3
	cfg.Retry.MinDelayMs = 250
	cfg.Retry.MaxDelayMs = 2000

	assert.Equal(t, policy, httpclient.PolicyFromConfig(cfg))
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    string
		expected time.Duration
		ok       bool
	}{
		{name: "seconds", value: "3", expected: 3 * time.Second, ok: true},
		{name: "zero", value: "0", expected: 0, ok: true},
		{name: "http date", value: now.Add(5 * time.Second).Format(http.TimeFormat), expected: 5 * time.Second, ok: true},
		{name: "past date", value: now.Add(-time.Minute).Format(http.TimeFormat), expected: 0, ok: true},
		{name: "empty", value: ""},
		{name: "negative", value: "-1"},
		{name: "garbage", value: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, ok := httpclient.RetryAfter(tt.value, now)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, delay)
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, httpclient.Retryable(429))
	assert.True(t, httpclient.Retryable(500))
	assert.True(t, httpclient.Retryable(599))
	assert.False(t, httpclient.Retryable(400))
	assert.False(t, httpclient.Retryable(404))
	assert.False(t, httpclient.Retryable(600))
}

func TestRandomJitterRange(t *testing.T) {
	for range 1000 {
		jitter := httpclient.RandomJitter()

		assert.GreaterOrEqual(t, jitter, time.Duration(0))
		assert.Less(t, jitter, 150*time.Millisecond)
	}
}
