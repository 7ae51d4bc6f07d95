package intent

import (
	"net/http"

	"retreat/infras/otel"
	"retreat/internal/domains/intent/model/dto"
	"retreat/internal/domains/intent/service"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/validator"
	"retreat/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Intent
	otel    otel.Otel
}

func New(service service.Intent, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/intents", handler.CreateIntent)
}

func (handler *Handler) AdminRouter(router chi.Router) {
	router.Get("/intents", handler.GetIntents)
	router.Get("/intents/{id}", handler.GetIntentByID)
	router.Post("/intents/{id}/cancel", handler.CancelIntent)
}

// CreateIntent records a booking intent and hands it off to the travel provider.
// @Summary Create a booking intent
// @Description Stores the intent then returns the provider url the traveler should be sent to.
// @Tags Intent
// @Accept json
// @Produce json
// @Param request body dto.CreateIntentRequest true "Create Intent Request"
// @Success 201 {object} response.Data[dto.CreateIntentResponse]
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 429 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/intents [post]
// @Security BearerAuth
func (handler *Handler) CreateIntent(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateIntent")
	defer scope.End()

	req := dto.CreateIntentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("trip_id", req.TripID).Str("package_id", req.PackageID).Msg("failed to create intent")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Intent created " + res.IntentID)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetIntents lists booking intents.
// @Summary List booking intents
// @Tags Admin
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Data[dto.GetIntentsResponse]
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/admin/intents [get]
// @Security BearerAuth
func (handler *Handler) GetIntents(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetIntents")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	intents, err := handler.service.GetAll(ctx, queryParams, request.URL.Query().Get(constant.RequestParamStatus))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get intents")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, intents)
}

// GetIntentByID returns one intent with its external references.
// @Summary Get a booking intent
// @Tags Admin
// @Produce json
// @Param id path string true "Intent ID"
// @Success 200 {object} response.Data[dto.IntentResponse]
// @Failure 404 {object} response.Error
// @Router /v1/admin/intents/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetIntentByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetIntentByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	intent, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("intent_id", id).Msg("failed to get intent by ID")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, intent)
}

// CancelIntent cancels an intent that has not been paid.
// @Summary Cancel a booking intent
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Intent ID"
// @Param request body dto.CancelIntentRequest true "Cancel Intent Request"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/admin/intents/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelIntent(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelIntent")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.CancelIntentRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Cancel(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("intent_id", id).Msg("failed to cancel intent")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Intent canceled successfully")
}
