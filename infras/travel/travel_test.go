package travel_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"retreat/config"
	otelMocks "retreat/infras/otel/mocks"
	"retreat/infras/travel"
	"retreat/shared/cache"
	cacheMocks "retreat/shared/cache/mocks"
	"retreat/shared/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Travel.BaseURL = baseURL
	cfg.Travel.APIKey = "wt_key"
	cfg.Travel.TripID = "0062792714"
	cfg.Travel.CheckoutBaseURL = "https://retreat.wetravel.com/trips/retreat-0062792714"
	cfg.Travel.RedirectURL = "https://retreat.example.com/thank-you"
	cfg.Travel.PaymentType = "deposit"
	cfg.Retry.Attempts = 1
	cfg.Retry.TimeoutSeconds = 5

	return cfg
}

func newProvider(t *testing.T, redisCache cache.RedisCache, handler http.HandlerFunc) travel.Provider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := newConfig(server.URL)
	ot := otelMocks.NewOtel()
	client := httpclient.New(cfg, ot, httpclient.WithSleep(func(context.Context, time.Duration) error { return nil }))

	return travel.New(cfg, client, redisCache, ot)
}

var bookingParams = travel.BookingParams{
	IntentID:   "int_1",
	PackageID:  "ocean-view",
	Guests:     2,
	TotalCents: 180000,
	Traveler:   travel.Traveler{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"},
}

func TestCreateBookingExchangesAndCachesToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := cacheMocks.NewMockRedisCache(ctrl)

	redisCache.EXPECT().Get(gomock.Any(), "travel:access_token", gomock.Any()).Return(cache.Nil)
	redisCache.EXPECT().Save(gomock.Any(), "travel:access_token", "at_1", 3540*time.Second).Return(nil)

	var received map[string]any

	provider := newProvider(t, redisCache, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/access_token":
			assert.Equal(t, "Bearer wt_key", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"access_token":"at_1","expires_in":3600}`))
		case "/v2/bookings":
			assert.Equal(t, "Bearer at_1", r.Header.Get("Authorization"))
			assert.Equal(t, "booking-int_1", r.Header.Get("Idempotency-Key"))

			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &received)

			_, _ = w.Write([]byte(`{"booking":{"booking_id":98765,"lead_id":"lead_1","payment_url":"https://pay.example.com/b/98765"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	booking, err := provider.CreateBooking(context.Background(), bookingParams)
	require.NoError(t, err)

	assert.Equal(t, travel.RemoteBooking{ID: "98765", LeadID: "lead_1", CheckoutURL: "https://pay.example.com/b/98765"}, booking)
	assert.Equal(t, "0062792714", received["trip_id"])
	assert.Equal(t, "int_1", received["internal_reference"])
	assert.Equal(t, "Intent: int_1", received["notes"])
	assert.EqualValues(t, 2, received["num_participants"])
}

func TestCreateBookingRefreshesRejectedToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := cacheMocks.NewMockRedisCache(ctrl)

	gomock.InOrder(
		redisCache.EXPECT().Get(gomock.Any(), "travel:access_token", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, value any) error {
				*value.(*string) = "stale"

				return nil
			}),
		redisCache.EXPECT().Delete(gomock.Any(), "travel:access_token").Return(nil),
		redisCache.EXPECT().Get(gomock.Any(), "travel:access_token", gomock.Any()).Return(cache.Nil),
		redisCache.EXPECT().Save(gomock.Any(), "travel:access_token", "fresh", 10*time.Minute).Return(nil),
	)

	var bookingCalls int32

	provider := newProvider(t, redisCache, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/access_token":
			_, _ = w.Write([]byte(`{"token":"fresh"}`))
		case "/v2/bookings":
			atomic.AddInt32(&bookingCalls, 1)

			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)

				return
			}

			_, _ = w.Write([]byte(`{"id":"wt_1"}`))
		}
	})

	booking, err := provider.CreateBooking(context.Background(), bookingParams)
	require.NoError(t, err)

	assert.Equal(t, "wt_1", booking.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&bookingCalls))
}

func TestCreateBookingUpstreamFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := cacheMocks.NewMockRedisCache(ctrl)

	redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, value any) error {
			*value.(*string) = "at_1"

			return nil
		})

	provider := newProvider(t, redisCache, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"package sold out"}`))
	})

	_, err := provider.CreateBooking(context.Background(), bookingParams)

	var upstream *httpclient.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnprocessableEntity, upstream.Status)
}

func TestCreateBookingMissingID(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := cacheMocks.NewMockRedisCache(ctrl)

	redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, value any) error {
			*value.(*string) = "at_1"

			return nil
		})

	provider := newProvider(t, redisCache, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	_, err := provider.CreateBooking(context.Background(), bookingParams)
	require.ErrorIs(t, err, travel.ErrIncompleteResult)
}

func TestCreatePaymentLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := cacheMocks.NewMockRedisCache(ctrl)

	redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, value any) error {
			*value.(*string) = "at_1"

			return nil
		})

	var received map[string]string

	provider := newProvider(t, redisCache, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payment_links", r.URL.Path)
		assert.Equal(t, "link-int_1", r.Header.Get("Idempotency-Key"))

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)

		_, _ = w.Write([]byte(`{"url":"https://pay.example.com/l/1"}`))
	})

	link, err := provider.CreatePaymentLink(context.Background(), "98765", "link-int_1")
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example.com/l/1", link)
	assert.Equal(t, map[string]string{
		"booking_id":   "98765",
		"payment_type": "deposit",
		"redirect_url": "https://retreat.example.com/thank-you",
	}, received)
}

func TestMissingAPIKey(t *testing.T) {
	cfg := newConfig("http://unused")
	cfg.Travel.APIKey = ""
	ot := otelMocks.NewOtel()

	provider := travel.New(cfg, httpclient.New(cfg, ot), cacheMocks.NewMockRedisCache(gomock.NewController(t)), ot)

	_, err := provider.CreateBooking(context.Background(), bookingParams)
	require.ErrorIs(t, err, travel.ErrMissingAPIKey)
}

func TestPrefillURL(t *testing.T) {
	ot := otelMocks.NewOtel()
	cfg := newConfig("http://unused")
	provider := travel.New(cfg, httpclient.New(cfg, ot), nil, ot)

	link, err := provider.PrefillURL(travel.PrefillParams{
		IntentID:  "int_7",
		PackageID: "ocean-view",
		Guests:    0,
		Traveler:  travel.Traveler{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com", Phone: "+1 555"},
	})
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)

	assert.Equal(t, "retreat.wetravel.com", parsed.Host)
	assert.Equal(t, "Intent: int_7", parsed.Query().Get("notes"))
	assert.Equal(t, "1", parsed.Query().Get("guests"))
	assert.Equal(t, "+1 555", parsed.Query().Get("phone"))
	assert.Equal(t, "ocean-view", parsed.Query().Get("package"))

	cfg.Travel.CheckoutBaseURL = ""
	_, err = travel.New(cfg, httpclient.New(cfg, ot), nil, ot).PrefillURL(travel.PrefillParams{IntentID: "int_7"})
	require.ErrorIs(t, err, travel.ErrMissingCheckout)
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected travel.Event
		wantErr  bool
	}{
		{
			name: "nested data",
			body: `{"id":"evt_1","type":"booking.paid","data":{"lead_id":"lead_1","booking_id":98765,"transaction_id":"tx_1","notes":"Intent: int_1"}}`,
			expected: travel.Event{
				ID: "evt_1", Type: "booking.paid", LeadID: "lead_1", BookingID: "98765", TransactionID: "tx_1", InternalReference: "int_1",
			},
		},
		{
			name:     "flat payload with event_type and data id as lead",
			body:     `{"event_type":"booking.confirmed","id":"lead_9","internal_reference":"int_2"}`,
			expected: travel.Event{ID: "lead_9", Type: "booking.confirmed", LeadID: "lead_9", InternalReference: "int_2"},
		},
		{name: "missing type", body: `{"data":{}}`, wantErr: true},
		{name: "not json", body: `<xml/>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := travel.ParseEvent([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, travel.ErrMalformedEvent)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, event)
		})
	}
}

func TestIntentFromNotes(t *testing.T) {
	assert.Equal(t, "int_abc-1", travel.IntentFromNotes("Guest note. Intent: int_abc-1 thanks"))
	assert.Empty(t, travel.IntentFromNotes("no marker"))
	assert.Equal(t, map[string]string{"lead_id": "l", "booking_id": "b", "transaction_id": ""}, travel.Event{LeadID: "l", BookingID: "b"}.Refs())
}
