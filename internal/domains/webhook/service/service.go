package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"retreat/config"
	"retreat/infras/otel"
	"retreat/infras/payment"
	"retreat/infras/s3"
	"retreat/infras/travel"
	bookingService "retreat/internal/domains/booking/service"
	intentService "retreat/internal/domains/intent/service"
	"retreat/internal/domains/webhook/model"
	"retreat/internal/domains/webhook/model/dto"
	"retreat/internal/domains/webhook/repository"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"
	gModel "retreat/shared/model"
	gRepo "retreat/shared/repository"
	"retreat/shared/signature"
	"retreat/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	msgInvalidSignature = "Invalid webhook signature"
	msgEventNotFound    = "Webhook event not found"
	archiveDateLayout   = "2006/01/02"
)

var ErrUnknownProvider = errors.New("unknown webhook provider")

type Webhook interface {
	// Ingest authenticates one delivery, stores its audit row and reconciles it.
	// An event that matches nothing is acknowledged, not rejected.
	Ingest(ctx context.Context, provider string, body []byte, signatureHeader string) (dto.WebhookResponse, error)
	Get(ctx context.Context, id string) (dto.WebhookEventResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter dto.EventFilter) (dto.GetWebhookEventsResponse, error)
	// Replay runs a verified event whose processing failed through the reconciler again.
	Replay(ctx context.Context, id string) (dto.WebhookResponse, error)
}

type serviceImpl struct {
	repo    repository.Webhook
	intent  intentService.Intent
	booking bookingService.Booking
	travel  travel.Provider
	payment payment.Provider
	archive s3.S3
	cfg     *config.Config
	otel    otel.Otel
}

func New(
	repo repository.Webhook,
	intentSvc intentService.Intent,
	bookingSvc bookingService.Booking,
	travelProvider travel.Provider,
	paymentProvider payment.Provider,
	archive s3.S3,
	cfg *config.Config,
	otel otel.Otel,
) Webhook {
	if !cfg.External.S3.Enable {
		archive = nil
	}

	return &serviceImpl{
		repo:    repo,
		intent:  intentSvc,
		booking: bookingSvc,
		travel:  travelProvider,
		payment: paymentProvider,
		archive: archive,
		cfg:     cfg,
		otel:    otel,
	}
}

// delivery is a parsed event of either provider.
type delivery struct {
	travel  *travel.Event
	payment *payment.Event
}

func (d delivery) identity() (eventType, eventID string) {
	switch {
	case d.travel != nil:
		return d.travel.Type, d.travel.ID
	case d.payment != nil:
		return d.payment.Type, d.payment.ID
	default:
		return "", ""
	}
}

// outcome is what reconciliation reports back for the audit row.
type outcome struct {
	intentID  string
	bookingID string
	status    string
	note      string
}

func (s *serviceImpl) Ingest(ctx context.Context, provider string, body []byte, signatureHeader string) (res dto.WebhookResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".webhook.Ingest")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !slices.Contains(dto.Providers, provider) {
		return res, failure.NotFound("Unknown webhook provider") //nolint:wrapcheck
	}

	record := model.WebhookEvent{
		ID:         shared.NewID(dto.IDPrefix),
		Provider:   provider,
		ReceivedAt: timezone.Now(),
		PayloadRaw: string(body),
		Metadata:   gModel.NewMetadata(constant.WebhookUser),
	}

	if err = s.verify(provider, body, signatureHeader); err != nil {
		return res, s.reject(ctx, record, err)
	}

	record.Verified = true

	event, err := s.parse(provider, body)
	if err != nil {
		log.Warn().Err(err).Str("provider", provider).Str("webhook_event_id", record.ID).Msg("webhook payload is malformed")

		record.Processed = true
		record.ProcessingError = shared.Ptr(err.Error())

		if err := s.repo.Insert(ctx, record); err != nil {
			log.Error().Err(err).Str("webhook_event_id", record.ID).Msg("failed to store malformed webhook event")
		}

		return res, failure.BadRequestFromString("Malformed webhook payload") //nolint:wrapcheck
	}

	record.EventType, record.ProviderEventID = event.identity()

	if err = s.repo.Insert(ctx, record); err != nil {
		log.Error().Err(err).Str("provider", provider).Str("event_type", record.EventType).Msg("failed to store webhook event")

		return res, fmt.Errorf("failed to store webhook event: %w", err)
	}

	record.ArchiveURL = s.archiveRaw(ctx, record)

	return s.process(ctx, record, event)
}

func (s *serviceImpl) verify(provider string, body []byte, header string) error {
	switch provider {
	case travel.ProviderName:
		return signature.Verify(body, header, s.cfg.Travel.WebhookSecret) //nolint:wrapcheck
	case payment.ProviderName:
		// the payment provider signs "<t>.<body>"; a bare or composite digest over the body is accepted too
		if strings.Contains(header, "t=") {
			tolerance := time.Duration(s.cfg.Payment.ToleranceSeconds) * time.Second

			return signature.VerifyTimestamped(body, header, s.cfg.Payment.WebhookSecret, tolerance, timezone.Now()) //nolint:wrapcheck
		}

		return signature.Verify(body, header, s.cfg.Payment.WebhookSecret) //nolint:wrapcheck
	default:
		return ErrUnknownProvider
	}
}

// reject audits an unauthenticated delivery. Its payload is stored but never parsed.
func (s *serviceImpl) reject(ctx context.Context, record model.WebhookEvent, cause error) error {
	if errors.Is(cause, signature.ErrMissingSecret) {
		log.Error().Str("provider", record.Provider).Msg("webhook secret is not configured")
	} else {
		log.Warn().Err(cause).Str("provider", record.Provider).Str("webhook_event_id", record.ID).Msg("webhook signature rejected")
	}

	record.Processed = true
	record.ProcessingError = shared.Ptr(model.NoteSignatureFailed)

	if err := s.repo.Insert(ctx, record); err != nil {
		log.Error().Err(err).Str("webhook_event_id", record.ID).Msg("failed to store rejected webhook event")
	}

	return failure.Unauthorized(msgInvalidSignature) //nolint:wrapcheck
}

func (s *serviceImpl) parse(provider string, body []byte) (delivery, error) {
	switch provider {
	case travel.ProviderName:
		event, err := s.travel.ParseEvent(body)
		if err != nil {
			return delivery{}, err //nolint:wrapcheck
		}

		return delivery{travel: &event}, nil
	case payment.ProviderName:
		event, err := s.payment.ParseEvent(body)
		if err != nil {
			return delivery{}, err //nolint:wrapcheck
		}

		return delivery{payment: &event}, nil
	default:
		return delivery{}, ErrUnknownProvider
	}
}

// ArchiveKey is where the raw payload of one delivery is stored.
func ArchiveKey(provider string, receivedAt time.Time, id string) string {
	return fmt.Sprintf("webhooks/%s/%s/%s.json", provider, receivedAt.UTC().Format(archiveDateLayout), id)
}

func (s *serviceImpl) archiveRaw(ctx context.Context, record model.WebhookEvent) string {
	if s.archive == nil {
		return ""
	}

	url, err := s.archive.PutObject(ctx, ArchiveKey(record.Provider, record.ReceivedAt, record.ID), constant.ContentTypeJSON, []byte(record.PayloadRaw))
	if err != nil {
		log.Warn().Err(err).Str("webhook_event_id", record.ID).Msg("failed to archive webhook payload")

		return ""
	}

	return url
}

func (s *serviceImpl) process(ctx context.Context, record model.WebhookEvent, event delivery) (res dto.WebhookResponse, err error) {
	out, err := s.dispatch(ctx, event)
	if err != nil {
		log.Error().Err(err).Str("webhook_event_id", record.ID).Str("event_type", record.EventType).Msg("failed to reconcile webhook event")

		fields := map[string]any{model.FieldProcessingError: err.Error()}
		s.finish(ctx, record, fields)

		return res, err
	}

	fields := map[string]any{
		model.FieldProcessed:       true,
		model.FieldProcessingError: nil,
	}

	if out.intentID != "" {
		fields[model.FieldRelatedIntentID] = out.intentID
	}

	if out.bookingID != "" {
		fields[model.FieldRelatedBookingID] = out.bookingID
	}

	if out.note != "" {
		log.Warn().Str("webhook_event_id", record.ID).Str("event_type", record.EventType).Msg(out.note)

		fields[model.FieldProcessingError] = out.note
	}

	s.finish(ctx, record, fields)

	return dto.WebhookResponse{
		Received:  true,
		IntentID:  out.intentID,
		BookingID: out.bookingID,
		Status:    out.status,
	}, nil
}

func (s *serviceImpl) dispatch(ctx context.Context, event delivery) (outcome, error) {
	switch {
	case event.travel != nil:
		result, err := s.intent.Reconcile(ctx, *event.travel)
		if err != nil {
			return outcome{}, err //nolint:wrapcheck
		}

		if result.IntentID == "" {
			return outcome{note: model.NoteNoIntent}, nil
		}

		return outcome{intentID: result.IntentID, status: result.Status}, nil
	case event.payment != nil:
		result, err := s.booking.Reconcile(ctx, *event.payment)
		if err != nil {
			return outcome{}, err //nolint:wrapcheck
		}

		if result.BookingID == "" {
			return outcome{note: model.NoteNoBooking}, nil
		}

		return outcome{bookingID: result.BookingID, status: result.Status}, nil
	default:
		return outcome{}, ErrUnknownProvider
	}
}

// finish writes the processing update. A row whose reconcile failed keeps processed=false
// with processing_error set, so Replay may write it a second time; that is the only case a
// row is updated twice. The processed guard keeps a completed row from ever being rewritten.
func (s *serviceImpl) finish(ctx context.Context, record model.WebhookEvent, fields map[string]any) {
	if record.ArchiveURL != "" {
		fields[model.FieldArchiveURL] = record.ArchiveURL
	}

	fields[constant.FieldModifiedAt] = timezone.Now()
	fields[constant.FieldModifiedBy] = constant.WebhookUser

	filter := gDto.And(gDto.Eq(model.FieldID, record.ID), gDto.Eq(model.FieldProcessed, false))

	affected, err := s.repo.Update(ctx, fields, filter)
	if err != nil {
		log.Error().Err(err).Str("webhook_event_id", record.ID).Msg("failed to update webhook event")

		return
	}

	if affected == 0 {
		log.Warn().Str("webhook_event_id", record.ID).Msg("webhook event was already processed")
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.WebhookEventResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".webhook.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	record, err := s.getEvent(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(record)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter dto.EventFilter) (res dto.GetWebhookEventsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".webhook.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	group, err := filter.ToFilterGroup()
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	params.Restrict(dto.SortableFields...)

	total, err := s.repo.Count(ctx, group)
	if err != nil {
		log.Error().Err(err).Msg("failed to count webhook events")

		return res, fmt.Errorf("failed to count webhook events: %w", err)
	}

	events, err := s.repo.GetAll(ctx, params, group)
	if err != nil {
		log.Error().Err(err).Msg("failed to get webhook events")

		return res, fmt.Errorf("failed to get webhook events: %w", err)
	}

	res.FromModels(events, total, params.Limit)

	return res, nil
}

func (s *serviceImpl) Replay(ctx context.Context, id string) (res dto.WebhookResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".webhook.Replay")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	record, err := s.getEvent(ctx, id)
	if err != nil {
		return res, err
	}

	if !record.Replayable() {
		return res, failure.Conflict("Only verified events that failed processing can be replayed") //nolint:wrapcheck
	}

	event, err := s.parse(record.Provider, []byte(record.PayloadRaw))
	if err != nil {
		log.Error().Err(err).Str("webhook_event_id", id).Msg("stored webhook payload cannot be parsed")

		return res, fmt.Errorf("failed to parse stored webhook payload: %w", err)
	}

	log.Info().Str("webhook_event_id", id).Str("event_type", record.EventType).Msg("replaying webhook event")

	return s.process(ctx, record, event)
}

func (s *serviceImpl) getEvent(ctx context.Context, id string) (model.WebhookEvent, error) {
	record, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID))
	if errors.Is(err, gRepo.ErrNotFound) {
		return record, failure.NotFound(msgEventNotFound) //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("webhook_event_id", id).Msg("failed to get webhook event")

		return record, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return record, nil
}
