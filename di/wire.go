//go:build wireinject
// +build wireinject

package di

import (
	"retreat/config"
	"retreat/infras/jwt"
	"retreat/infras/kafka"
	"retreat/infras/otel"
	"retreat/infras/payment"
	"retreat/infras/postgres"
	"retreat/infras/redis"
	"retreat/infras/s3"
	"retreat/infras/travel"
	"retreat/internal/events"
	"retreat/permissions"
	"retreat/shared/cache"
	"retreat/shared/httpclient"
	"retreat/shared/ratelimit"
	"retreat/transport/http"
	"retreat/transport/http/middleware"
	"retreat/transport/http/router"

	accountRepository "retreat/internal/domains/account/repository"
	accountService "retreat/internal/domains/account/service"
	bookingRepository "retreat/internal/domains/booking/repository"
	bookingService "retreat/internal/domains/booking/service"
	intentRepository "retreat/internal/domains/intent/repository"
	intentService "retreat/internal/domains/intent/service"
	pricingService "retreat/internal/domains/pricing/service"
	tripRepository "retreat/internal/domains/trip/repository"
	tripService "retreat/internal/domains/trip/service"
	webhookRepository "retreat/internal/domains/webhook/repository"
	webhookService "retreat/internal/domains/webhook/service"

	authHandler "retreat/internal/handlers/auth"
	bookingHandler "retreat/internal/handlers/booking"
	intentHandler "retreat/internal/handlers/intent"
	tripHandler "retreat/internal/handlers/trip"
	webhookHandler "retreat/internal/handlers/webhook"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var externals = wire.NewSet(
	httpclient.NewClient,
	travel.New,
	payment.New,
)

var middlewares = wire.NewSet(
	ratelimit.NewFromConfig,
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	events.New,
)

var accountDomain = wire.NewSet(
	accountRepository.New,
	accountService.New,
)

var tripDomain = wire.NewSet(
	tripRepository.New,
	tripRepository.NewPackage,
	tripService.New,
)

var bookingDomain = wire.NewSet(
	pricingService.New,
	bookingRepository.New,
	bookingService.New,
)

var intentDomain = wire.NewSet(
	intentRepository.New,
	intentService.New,
)

var webhookDomain = wire.NewSet(
	webhookRepository.New,
	webhookService.New,
)

var domains = wire.NewSet(
	accountDomain,
	tripDomain,
	bookingDomain,
	intentDomain,
	webhookDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	tripHandler.New,
	bookingHandler.New,
	intentHandler.New,
	webhookHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		externals,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		NewServer,
	)

	return &http.HTTP{}
}
