package otel_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"retreat/infras/otel"
	"retreat/shared/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func record(t *testing.T, fn func(scope otel.Scope)) sdktrace.ReadOnlySpan {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "op")
	scope := otel.NewScope(span)
	fn(scope)
	scope.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	return spans[0]
}

func TestScopeTraceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvent  string
	}{
		{name: "server error", err: errors.New("db down"), wantStatus: codes.Error, wantEvent: "exception"},
		{name: "provider failure", err: failure.BadGateway("provider down", http.StatusServiceUnavailable), wantStatus: codes.Error, wantEvent: "exception"},
		{name: "caller mistake", err: failure.Unauthorized("Invalid webhook signature"), wantStatus: codes.Unset, wantEvent: "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span := record(t, func(scope otel.Scope) { scope.TraceIfError(tt.err) })

			assert.Equal(t, tt.wantStatus, span.Status().Code)
			require.Len(t, span.Events(), 1)
			assert.Equal(t, tt.wantEvent, span.Events()[0].Name)
		})
	}
}

func TestScopeTraceIfErrorNil(t *testing.T) {
	span := record(t, func(scope otel.Scope) { scope.TraceIfError(nil) })

	assert.Equal(t, codes.Unset, span.Status().Code)
	assert.Empty(t, span.Events())
}

func TestScopeAttributes(t *testing.T) {
	span := record(t, func(scope otel.Scope) {
		scope.SetAttribute("booking.id", "bk_1")
		scope.SetAttributes(map[string]any{
			"amount.cents": int64(10330),
			"verified":     true,
			"guests":       2,
		})
	})

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		got[kv.Key] = kv.Value
	}

	assert.Equal(t, "bk_1", got["booking.id"].AsString())
	assert.Equal(t, int64(10330), got["amount.cents"].AsInt64())
	assert.True(t, got["verified"].AsBool())
	assert.Equal(t, int64(2), got["guests"].AsInt64())
}
