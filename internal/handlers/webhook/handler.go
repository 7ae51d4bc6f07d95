package webhook

import (
	"io"
	"net/http"

	"retreat/infras/otel"
	"retreat/infras/payment"
	"retreat/infras/travel"
	"retreat/internal/domains/webhook/model/dto"
	"retreat/internal/domains/webhook/service"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"
	"retreat/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MaxPayloadBytes caps a single webhook delivery.
const MaxPayloadBytes = 1 << 20

const queryParamProvider = "provider"
const queryParamProcessed = "processed"

type Handler struct {
	service service.Webhook
	otel    otel.Otel
}

func New(service service.Webhook, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/webhooks", func(routerGroup chi.Router) {
		routerGroup.Post("/travel", handler.TravelWebhook)
		routerGroup.Post("/payment", handler.PaymentWebhook)
	})
}

func (handler *Handler) AdminRouter(router chi.Router) {
	router.Get("/webhooks", handler.GetWebhookEvents)
	router.Get("/webhooks/{id}", handler.GetWebhookEventByID)
	router.Post("/webhooks/{id}/replay", handler.ReplayWebhookEvent)
}

// TravelWebhook receives booking lifecycle events from the travel provider.
// @Summary Travel provider webhook
// @Tags Webhook
// @Accept json
// @Produce json
// @Param X-Wetravel-Signature header string false "HMAC signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/webhooks/travel [post]
func (handler *Handler) TravelWebhook(writer http.ResponseWriter, request *http.Request) {
	header := shared.FirstNonEmpty(
		request.Header.Get(constant.RequestHeaderTravelSignature),
		request.Header.Get(constant.RequestHeaderSvixSignature),
	)

	handler.ingest(writer, request, travel.ProviderName, header)
}

// PaymentWebhook receives checkout and invoice events from the payment provider.
// @Summary Payment provider webhook
// @Tags Webhook
// @Accept json
// @Produce json
// @Param Stripe-Signature header string false "HMAC signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/webhooks/payment [post]
func (handler *Handler) PaymentWebhook(writer http.ResponseWriter, request *http.Request) {
	header := shared.FirstNonEmpty(
		request.Header.Get(constant.RequestHeaderPaymentSignature),
		request.Header.Get(constant.RequestHeaderPaymentAltSig),
	)

	handler.ingest(writer, request, payment.ProviderName, header)
}

func (handler *Handler) ingest(writer http.ResponseWriter, request *http.Request, provider, header string) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Webhook."+provider)
	defer scope.End()

	body, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, MaxPayloadBytes))
	if err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Str("provider", provider).Msg("failed to read webhook body")

		response.WithError(writer, failure.BadRequestFromString("Unreadable webhook payload"))

		return
	}

	res, err := handler.service.Ingest(ctx, provider, body, header)
	if err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	response.WithBody(writer, http.StatusOK, res)
}

// GetWebhookEvents lists the webhook audit log.
// @Summary List webhook events
// @Tags Admin
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param provider query string false "travel or payment"
// @Param processed query bool false "Filter by processed flag"
// @Success 200 {object} response.Data[dto.GetWebhookEventsResponse]
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/admin/webhooks [get]
// @Security BearerAuth
func (handler *Handler) GetWebhookEvents(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetWebhookEvents")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filter := dto.EventFilter{
		Provider:  request.URL.Query().Get(queryParamProvider),
		Processed: request.URL.Query().Get(queryParamProcessed),
	}

	events, err := handler.service.GetAll(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get webhook events")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, events)
}

// GetWebhookEventByID returns one audit row including the raw payload.
// @Summary Get a webhook event
// @Tags Admin
// @Produce json
// @Param id path string true "Webhook Event ID"
// @Success 200 {object} response.Data[dto.WebhookEventResponse]
// @Failure 404 {object} response.Error
// @Router /v1/admin/webhooks/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetWebhookEventByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetWebhookEventByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	event, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("webhook_event_id", id).Msg("failed to get webhook event")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, event)
}

// ReplayWebhookEvent reprocesses a verified event whose reconciliation failed.
// @Summary Replay a webhook event
// @Tags Admin
// @Produce json
// @Param id path string true "Webhook Event ID"
// @Success 200 {object} response.Data[dto.WebhookResponse]
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/admin/webhooks/{id}/replay [post]
// @Security BearerAuth
func (handler *Handler) ReplayWebhookEvent(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ReplayWebhookEvent")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Replay(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("webhook_event_id", id).Msg("failed to replay webhook event")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
