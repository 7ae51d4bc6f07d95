package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"retreat/config"
	"retreat/infras/otel"
	"retreat/infras/travel"
	"retreat/internal/domains/intent/model"
	"retreat/internal/domains/intent/model/dto"
	"retreat/internal/domains/intent/repository"
	tripModel "retreat/internal/domains/trip/model"
	tripService "retreat/internal/domains/trip/service"
	"retreat/internal/events"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"
	"retreat/shared/httpclient"
	gRepo "retreat/shared/repository"
	"retreat/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	ModeAPI     = "api"
	ModePrefill = "prefill"

	msgProviderUnavailable = "Travel provider unavailable"
	msgIntentNotFound      = "Booking intent not found"
)

type Intent interface {
	// Create stores a draft, hands it to the travel provider and returns where the traveler pays.
	Create(ctx context.Context, req dto.CreateIntentRequest) (dto.CreateIntentResponse, error)
	Get(ctx context.Context, id string) (dto.IntentResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, status string) (dto.GetIntentsResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelIntentRequest) error
	// Reconcile matches a verified travel event to an intent. No match is not an error.
	Reconcile(ctx context.Context, event travel.Event) (dto.ReconcileResult, error)
}

type serviceImpl struct {
	repo      repository.Intent
	trip      tripService.Trip
	travel    travel.Provider
	publisher events.Publisher
	mode      string
	otel      otel.Otel
}

func New(
	repo repository.Intent,
	tripSvc tripService.Trip,
	travelProvider travel.Provider,
	publisher events.Publisher,
	cfg *config.Config,
	otel otel.Otel,
) Intent {
	return &serviceImpl{
		repo:      repo,
		trip:      tripSvc,
		travel:    travelProvider,
		publisher: publisher,
		mode:      cfg.Travel.Mode,
		otel:      otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateIntentRequest) (res dto.CreateIntentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".intent.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	_, pkg, err := s.trip.Resolve(ctx, req.TripID, req.PackageID)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	user := actor(ctx, constant.SystemUser)
	intent := req.ToModel(pkg, user)

	if err = s.repo.Insert(ctx, intent); err != nil {
		log.Error().Err(err).Str("trip_id", req.TripID).Msg("failed to create booking intent")

		return res, fmt.Errorf("failed to create booking intent: %w", err)
	}

	refs, err := s.handOff(ctx, intent, pkg)
	if err != nil {
		s.keepRefs(ctx, intent, refs)

		return res, err
	}

	intent.ExternalRefs.Merge(refs)

	handedOffAt := timezone.Now()
	intent.HandedOffAt = &handedOffAt
	intent.Status = intent.Project()

	_, err = s.repo.Update(ctx, map[string]any{
		model.FieldExternalRefs:  intent.ExternalRefs,
		model.FieldHandedOffAt:   handedOffAt,
		model.FieldStatus:        intent.Status,
		constant.FieldModifiedAt: handedOffAt,
		constant.FieldModifiedBy: user,
	}, shared.FilterByID(intent.ID, model.FieldID))
	if err != nil {
		// the notes still carry the intent id, so provider events can match it
		log.Warn().Err(err).Str("intent_id", intent.ID).Msg("failed to mark booking intent handed off")
	} else {
		s.publish(ctx, intent.ID, model.StatusDraft, intent.Status, "", "handed off")
	}

	log.Info().Str("intent_id", intent.ID).Str("mode", s.mode).Msg("booking intent handed off")

	return dto.CreateIntentResponse{
		IntentID: intent.ID,
		URL:      intent.ExternalRefs.Get(model.RefPaymentLink),
		LeadID:   intent.ExternalRefs.Get(model.RefLeadID),
		Status:   intent.Status,
	}, nil
}

// handOff returns every identifier learned, even on failure.
func (s *serviceImpl) handOff(ctx context.Context, intent model.Intent, pkg tripModel.Package) (map[string]string, error) {
	traveler := travel.Traveler{
		FirstName: intent.TravelerFirstName,
		LastName:  intent.TravelerLastName,
		Email:     intent.TravelerEmail,
		Phone:     intent.TravelerPhone,
	}

	if s.mode != ModeAPI {
		link, err := s.travel.PrefillURL(travel.PrefillParams{
			IntentID:  intent.ID,
			PackageID: shared.FirstNonEmpty(pkg.ProviderPackageName, pkg.ID),
			Guests:    intent.TravelersCount,
			Traveler:  traveler,
		})
		if err != nil {
			log.Error().Err(err).Str("intent_id", intent.ID).Msg("failed to build prefilled checkout url")

			return nil, fmt.Errorf("failed to build prefilled checkout url: %w", err)
		}

		return map[string]string{model.RefPaymentLink: link}, nil
	}

	remote, err := s.travel.CreateBooking(ctx, travel.BookingParams{
		IntentID:    intent.ID,
		PackageID:   pkg.ID,
		PackageName: shared.FirstNonEmpty(pkg.ProviderPackageName, pkg.Name),
		Guests:      intent.TravelersCount,
		TotalCents:  intent.TotalPriceCents,
		Traveler:    traveler,
	})
	if err != nil {
		log.Error().Err(err).Str("intent_id", intent.ID).Msg("failed to create remote booking")

		return nil, httpclient.AsFailure(err, msgProviderUnavailable)
	}

	refs := map[string]string{
		model.RefBookingID:   remote.ID,
		model.RefLeadID:      remote.LeadID,
		model.RefPaymentLink: remote.CheckoutURL,
	}

	if remote.CheckoutURL != "" {
		return refs, nil
	}

	link, err := s.travel.CreatePaymentLink(ctx, remote.ID, "link-"+intent.ID)
	if err != nil {
		log.Error().Err(err).Str("intent_id", intent.ID).Str("booking_id", remote.ID).Msg("failed to create payment link")

		return refs, httpclient.AsFailure(err, msgProviderUnavailable)
	}

	refs[model.RefPaymentLink] = link

	return refs, nil
}

// keepRefs saves what a failed hand-off learned while the intent stays a draft.
func (s *serviceImpl) keepRefs(ctx context.Context, intent model.Intent, refs map[string]string) {
	if !intent.ExternalRefs.Merge(refs) {
		return
	}

	_, err := s.repo.Update(ctx, map[string]any{
		model.FieldExternalRefs:  intent.ExternalRefs,
		constant.FieldModifiedAt: timezone.Now(),
	}, shared.FilterByID(intent.ID, model.FieldID))
	if err != nil {
		log.Warn().Err(err).Str("intent_id", intent.ID).Msg("failed to keep external refs of a draft intent")
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.IntentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".intent.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	intent, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID))
	if errors.Is(err, gRepo.ErrNotFound) {
		return res, failure.NotFound(msgIntentNotFound) //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("intent_id", id).Msg("failed to get booking intent")

		return res, fmt.Errorf("failed to get booking intent: %w", err)
	}

	res.FromModel(intent)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, status string) (res dto.GetIntentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".intent.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !dto.ValidStatusFilter(status) {
		return res, failure.BadRequestFromString("unknown intent status: " + status) //nolint:wrapcheck
	}

	params.Restrict(dto.SortableFields...)

	filter := gDto.And()
	if status != "" {
		filter = gDto.And(gDto.Eq(model.FieldStatus, status))
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count booking intents")

		return res, fmt.Errorf("failed to count booking intents: %w", err)
	}

	intents, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking intents")

		return res, fmt.Errorf("failed to get booking intents: %w", err)
	}

	res.FromModels(intents, total, params.Limit)

	return res, nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelIntentRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".intent.Cancel")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user := actor(ctx, constant.SystemUser)

	var from string

	err = s.repo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.lockIntent(ctx, tx, id)
		if err != nil {
			return err
		}

		from = locked.Status

		switch locked.FulfillmentStatus {
		case model.FulfillmentCanceled:
			return nil
		case model.FulfillmentConfirmed:
			return failure.Conflict("Booking intent is already confirmed") //nolint:wrapcheck
		}

		return s.updateTx(ctx, tx, id, user, map[string]any{
			model.FieldFulfillmentStatus: model.FulfillmentCanceled,
			model.FieldStatus:            model.StatusCanceled,
			model.FieldCancelReason:      req.Reason,
		})
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	if from != model.StatusCanceled {
		log.Info().Str("intent_id", id).Str("from", from).Str("by", user).Msg("booking intent canceled")
		s.publish(ctx, id, from, model.StatusCanceled, "", req.Reason)
	}

	return nil
}

// matcher yields a lookup filter for an event, or false when the event lacks the key.
type matcher struct {
	name   string
	filter func(event travel.Event) (gDto.FilterGroup, bool)
}

// matchers run in order and the first hit wins.
var matchers = []matcher{
	{
		name: model.RefLeadID,
		filter: func(event travel.Event) (gDto.FilterGroup, bool) {
			return gDto.And(model.RefFilter(model.RefLeadID, event.LeadID)), event.LeadID != ""
		},
	},
	{
		name: model.RefBookingID,
		filter: func(event travel.Event) (gDto.FilterGroup, bool) {
			return gDto.And(model.RefFilter(model.RefBookingID, event.BookingID)), event.BookingID != ""
		},
	},
	{
		name: "internal_reference",
		filter: func(event travel.Event) (gDto.FilterGroup, bool) {
			return shared.FilterByID(event.InternalReference, model.FieldID), event.InternalReference != ""
		},
	},
}

func (s *serviceImpl) Reconcile(ctx context.Context, event travel.Event) (res dto.ReconcileResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".intent.Reconcile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	intent, found, err := s.match(ctx, event)
	if err != nil {
		return res, err
	}

	if !found {
		log.Warn().Str("event_type", event.Type).Str("lead_id", event.LeadID).Msg("travel event matched no booking intent")

		return res, nil
	}

	res.IntentID = intent.ID

	err = s.repo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.lockIntent(ctx, tx, intent.ID)
		if err != nil {
			return err
		}

		res.From, res.Status = locked.Status, locked.Status

		fields := map[string]any{}

		refs := locked.ExternalRefs.Clone()
		if refs.Merge(event.Refs()) {
			fields[model.FieldExternalRefs] = refs
		}

		effect, ok := model.EffectOf(event.Type)
		if !ok {
			log.Info().Str("intent_id", locked.ID).Str("event_type", event.Type).Msg("travel event type has no status effect")
		}

		current := model.Axes{Payment: locked.PaymentStatus, Fulfillment: locked.FulfillmentStatus}
		next := current.Apply(effect.Payment, effect.Fulfillment)

		if next.Payment != current.Payment {
			fields[model.FieldPaymentStatus] = next.Payment
		}

		if next.Fulfillment != current.Fulfillment {
			fields[model.FieldFulfillmentStatus] = next.Fulfillment
		}

		if status := model.Project(next.Payment, next.Fulfillment, locked.HandedOffAt != nil); status != locked.Status {
			fields[model.FieldStatus] = status
			res.Status = status
		}

		// a repeated delivery changes nothing and writes nothing
		if len(fields) == 0 {
			return nil
		}

		res.Applied = true

		return s.updateTx(ctx, tx, locked.ID, constant.WebhookUser, fields)
	})
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	if res.From != res.Status {
		log.Info().Str("intent_id", res.IntentID).Str("from", res.From).Str("to", res.Status).Str("event_type", event.Type).Msg("booking intent transitioned")
		s.publish(ctx, res.IntentID, res.From, res.Status, event.ID, event.Type)
	}

	return res, nil
}

func (s *serviceImpl) match(ctx context.Context, event travel.Event) (model.Intent, bool, error) {
	for _, m := range matchers {
		filter, ok := m.filter(event)
		if !ok {
			continue
		}

		intent, err := s.repo.Get(ctx, filter)
		if errors.Is(err, gRepo.ErrNotFound) {
			continue
		}

		if err != nil {
			log.Error().Err(err).Str("matcher", m.name).Msg("failed to match travel event")

			return intent, false, fmt.Errorf("failed to match travel event: %w", err)
		}

		return intent, true, nil
	}

	return model.Intent{}, false, nil
}

func (s *serviceImpl) lockIntent(ctx context.Context, tx *sqlx.Tx, id string) (model.Intent, error) {
	intent, err := s.repo.GetForUpdateTx(ctx, tx, shared.FilterByID(id, model.FieldID))
	if errors.Is(err, gRepo.ErrNotFound) {
		return intent, failure.NotFound(msgIntentNotFound) //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("intent_id", id).Msg("failed to lock booking intent")

		return intent, fmt.Errorf("failed to lock booking intent: %w", err)
	}

	return intent, nil
}

func (s *serviceImpl) updateTx(ctx context.Context, tx *sqlx.Tx, id, user string, fields map[string]any) error {
	fields[constant.FieldModifiedAt] = timezone.Now()
	fields[constant.FieldModifiedBy] = user

	if _, err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(id, model.FieldID)); err != nil {
		log.Error().Err(err).Str("intent_id", id).Msg("failed to update booking intent")

		return fmt.Errorf("failed to update booking intent: %w", err)
	}

	return nil
}

func (s *serviceImpl) publish(ctx context.Context, id, from, to, eventID, reason string) {
	s.publisher.StatusChanged(ctx, events.StatusChanged{
		Entity:  events.EntityIntent,
		ID:      id,
		From:    from,
		To:      to,
		EventID: eventID,
		Reason:  reason,
		At:      timezone.Now(),
	})
}

func actor(ctx context.Context, fallback string) string {
	if user, ok := ctx.Value(constant.ContextKeyUserID).(string); ok && user != "" {
		return user
	}

	return fallback
}
