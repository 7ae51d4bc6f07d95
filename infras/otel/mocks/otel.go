package mocks

import (
	"context"

	"retreat/infras/otel"
)

type noopOtel struct{}

// NewOtel returns a tracer whose scopes record nothing. Services and handlers use it in tests.
func NewOtel() otel.Otel {
	return noopOtel{}
}

func (noopOtel) NewScope(ctx context.Context, _, _ string) (context.Context, otel.Scope) {
	return ctx, NewScope()
}

func (noopOtel) Shutdown(context.Context) error {
	return nil
}
