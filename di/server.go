package di

import (
	"context"

	"retreat/config"
	"retreat/infras/kafka"
	"retreat/infras/otel"
	"retreat/infras/postgres"
	"retreat/transport/http"
	"retreat/transport/http/middleware"
	"retreat/transport/http/router"

	goRedis "github.com/redis/go-redis/v9"
)

// NewServer builds the HTTP server and hands it every dependency that must be released on shutdown.
// Spans are flushed last so the shutdown itself is traced.
func NewServer(
	cfg *config.Config,
	r router.Router,
	authRole middleware.AuthRole,
	db *postgres.Connection,
	redisClient *goRedis.Client,
	kafkaClient kafka.Client,
	tracer otel.Otel,
) *http.HTTP {
	server := http.New(cfg, r, authRole)

	server.OnShutdown(func(context.Context) error { return kafkaClient.Close() })
	server.OnShutdown(func(context.Context) error { return redisClient.Close() })
	server.OnShutdown(func(context.Context) error { return db.Close() })
	server.OnShutdown(tracer.Shutdown)

	return server
}
