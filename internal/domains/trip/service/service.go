package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retreat/config"
	"retreat/infras/otel"
	"retreat/internal/domains/trip/model"
	"retreat/internal/domains/trip/model/dto"
	"retreat/internal/domains/trip/repository"
	"retreat/shared"
	"retreat/shared/cache"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"
	gRepo "retreat/shared/repository"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetTrip = "trip:get"
)

type Trip interface {
	Get(ctx context.Context, id string) (dto.TripResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams) (dto.GetTripsResponse, error)
	UpdatePaymentSettings(ctx context.Context, id string, req dto.UpdatePaymentSettingsRequest) error
	// Resolve loads an active trip and one of its active packages, the only source of prices.
	Resolve(ctx context.Context, tripID, packageID string) (model.Trip, model.Package, error)
}

type serviceImpl struct {
	repo        repository.Trip
	packageRepo repository.Package
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(repo repository.Trip, packageRepo repository.Package, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Trip {
	return &serviceImpl{
		repo:        repo,
		packageRepo: packageRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TripResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".trip.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetTrip, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for trip")

		return res, nil
	}

	trip, err := s.getTrip(ctx, id)
	if err != nil {
		return res, err
	}

	packages, err := s.packageRepo.GetAll(ctx, gDto.QueryParams{SortBy: model.FieldPricePerPersonCents, SortDir: gDto.SortDirAsc},
		gDto.And(gDto.Eq(model.FieldTripID, id), gDto.Eq(model.FieldActive, true)))
	if err != nil {
		log.Error().Err(err).Str("trip_id", id).Msg("failed to get trip packages")

		return res, fmt.Errorf("failed to get trip packages: %w", err)
	}

	res.FromModel(trip, packages)

	if err := s.cache.Save(ctx, cacheKey, res, time.Duration(s.cfg.Cache.TTL)*time.Second); err != nil {
		log.Warn().Err(err).Msg("failed to save trip to cache")
	}

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams) (res dto.GetTripsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".trip.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	params.Restrict(dto.SortableFields...)
	filter := gDto.And(gDto.Eq(model.FieldActive, true))

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count trips")

		return res, fmt.Errorf("failed to count trips: %w", err)
	}

	trips, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get trips")

		return res, fmt.Errorf("failed to get trips: %w", err)
	}

	res.FromModels(trips, total, params.Limit)

	return res, nil
}

func (s *serviceImpl) UpdatePaymentSettings(ctx context.Context, id string, req dto.UpdatePaymentSettingsRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".trip.UpdatePaymentSettings")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req == (dto.UpdatePaymentSettingsRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	fields, err := req.ToUpdateFields(user)
	if err != nil {
		return failure.BadRequestFromString("plan_cutoff_date must be a date (YYYY-MM-DD)") //nolint:wrapcheck
	}

	affected, err := s.repo.Update(ctx, fields, shared.FilterByID(id, model.FieldID))
	if err != nil {
		log.Error().Err(err).Str("trip_id", id).Msg("failed to update trip payment settings")

		return fmt.Errorf("failed to update trip payment settings: %w", err)
	}

	if affected == 0 {
		return failure.NotFound("Trip not found") //nolint:wrapcheck
	}

	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetTrip, id)); err != nil {
		log.Warn().Err(err).Msg("failed to delete trip from cache")
	}

	log.Info().Str("trip_id", id).Str("by", user).Msg("trip payment settings updated")

	return nil
}

func (s *serviceImpl) Resolve(ctx context.Context, tripID, packageID string) (trip model.Trip, pkg model.Package, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".trip.Resolve")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	trip, err = s.getTrip(ctx, tripID)
	if err != nil {
		return trip, pkg, err
	}

	pkg, err = s.packageRepo.Get(ctx, gDto.And(
		gDto.Eq(model.FieldID, packageID),
		gDto.Eq(model.FieldTripID, tripID),
		gDto.Eq(model.FieldActive, true),
	))
	if errors.Is(err, gRepo.ErrNotFound) {
		return trip, pkg, failure.NotFound("Package not found") //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("package_id", packageID).Msg("failed to get package")

		return trip, pkg, fmt.Errorf("failed to get package: %w", err)
	}

	return trip, pkg, nil
}

func (s *serviceImpl) getTrip(ctx context.Context, id string) (model.Trip, error) {
	trip, err := s.repo.Get(ctx, gDto.And(gDto.Eq(model.FieldID, id), gDto.Eq(model.FieldActive, true)))
	if errors.Is(err, gRepo.ErrNotFound) {
		return trip, failure.NotFound("Trip not found") //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("trip_id", id).Msg("failed to get trip")

		return trip, fmt.Errorf("failed to get trip: %w", err)
	}

	return trip, nil
}
