package trip

import (
	"net/http"

	"retreat/infras/otel"
	"retreat/internal/domains/trip/model/dto"
	"retreat/internal/domains/trip/service"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/validator"
	"retreat/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Trip
	otel    otel.Otel
}

func New(service service.Trip, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/trips", handler.GetTrips)
	router.Get("/trips/{id}", handler.GetTripByID)
}

func (handler *Handler) AdminRouter(router chi.Router) {
	router.Put("/trips/{id}/payment-settings", handler.UpdatePaymentSettings)
}

// GetTrips lists the catalogue of trips.
// @Summary List trips
// @Tags Trip
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetTripsResponse]
// @Failure 400 {object} response.Error
// @Failure 429 {object} response.Error
// @Router /v1/trips [get]
func (handler *Handler) GetTrips(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTrips")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	trips, err := handler.service.GetAll(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get trips")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, trips)
}

// GetTripByID returns a trip with its packages.
// @Summary Get a trip
// @Tags Trip
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} response.Data[dto.TripResponse]
// @Failure 404 {object} response.Error
// @Failure 429 {object} response.Error
// @Router /v1/trips/{id} [get]
func (handler *Handler) GetTripByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTripByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	trip, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("trip_id", id).Msg("failed to get trip by ID")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, trip)
}

// UpdatePaymentSettings changes the deposit and plan settings of a trip.
// @Summary Update trip payment settings
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body dto.UpdatePaymentSettingsRequest true "Payment Settings Request"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/admin/trips/{id}/payment-settings [put]
// @Security BearerAuth
func (handler *Handler) UpdatePaymentSettings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdatePaymentSettings")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.UpdatePaymentSettingsRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.UpdatePaymentSettings(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("trip_id", id).Msg("failed to update payment settings")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Payment settings updated successfully")
}
