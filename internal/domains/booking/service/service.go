package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"retreat/config"
	"retreat/infras/otel"
	"retreat/infras/payment"
	"retreat/internal/domains/booking/model"
	"retreat/internal/domains/booking/model/dto"
	"retreat/internal/domains/booking/repository"
	pricingModel "retreat/internal/domains/pricing/model"
	pricing "retreat/internal/domains/pricing/service"
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
	msgProviderUnavailable = "Payment provider unavailable"
	msgBookingNotFound     = "Booking not found"
)

type Booking interface {
	// Create persists the booking before the provider is called, so a provider failure leaves
	// an initiated booking behind for a later checkout.
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.CheckoutResponse, error)
	// Checkout opens a new session for an existing booking, trusting nothing but its id.
	Checkout(ctx context.Context, bookingID string) (dto.CheckoutResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, status string) (dto.GetBookingsResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) error
	RecordPayment(ctx context.Context, id string, req dto.RecordPaymentRequest) (dto.BookingResponse, error)
	Reconcile(ctx context.Context, event payment.Event) (dto.ReconcileResult, error)
}

type serviceImpl struct {
	repo      repository.Booking
	trip      tripService.Trip
	pricing   pricing.Pricing
	payment   payment.Provider
	publisher events.Publisher
	cfg       *config.Config
	otel      otel.Otel
}

func New(
	repo repository.Booking,
	tripSvc tripService.Trip,
	pricingService pricing.Pricing,
	paymentProvider payment.Provider,
	publisher events.Publisher,
	cfg *config.Config,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:      repo,
		trip:      tripSvc,
		pricing:   pricingService,
		payment:   paymentProvider,
		publisher: publisher,
		cfg:       cfg,
		otel:      otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.CheckoutResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	trip, pkg, err := s.trip.Resolve(ctx, req.TripID, req.PackageID)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	if req.PaymentOption == pricingModel.PaymentOptionPlan {
		if err = trip.PlanAvailable(timezone.Now()); err != nil {
			return res, err //nolint:wrapcheck
		}
	}

	quote, err := s.pricing.Quote(req.PaymentOption, pkg.PricePerPersonCents, req.Guests, trip.DepositPerPersonCents)
	if err != nil {
		return res, failure.BadRequest(err) //nolint:wrapcheck
	}

	booking := req.ToModel(quote, shared.FirstNonEmpty(trip.Currency, s.pricing.Currency()), actor(ctx, constant.SystemUser))

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Str("trip_id", req.TripID).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	log.Info().
		Str("booking_id", booking.ID).
		Str("payment_option", booking.PaymentOption).
		Int64("total_cents", quote.TotalCents).
		Int64("charge_cents", quote.GrossCents).
		Msg("booking initiated")

	url, err := s.openCheckout(ctx, booking, trip.Name, quote.NetCents)
	if err != nil {
		return res, err
	}

	return dto.CheckoutResponse{URL: url, BookingID: booking.ID}, nil
}

func (s *serviceImpl) Checkout(ctx context.Context, bookingID string) (res dto.CheckoutResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Checkout")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if !model.IsPayable(booking.Status) {
		return res, failure.Conflict(fmt.Sprintf("Booking is %s and not awaiting payment", booking.Status)) //nolint:wrapcheck
	}

	trip, err := s.trip.Get(ctx, booking.TripID)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	net := amountDue(booking)
	if net <= 0 {
		return res, failure.Conflict("Booking has no balance due") //nolint:wrapcheck
	}

	url, err := s.openCheckout(ctx, booking, trip.Name, net)
	if err != nil {
		return res, err
	}

	return dto.CheckoutResponse{URL: url, BookingID: booking.ID}, nil
}

// amountDue is the deposit until anything has been paid, then the balance.
func amountDue(booking model.Booking) int64 {
	if booking.AmountPaidCents == 0 && booking.DepositAmountCents != nil {
		return min(*booking.DepositAmountCents, booking.TotalPriceCents)
	}

	return booking.Balance()
}

func (s *serviceImpl) openCheckout(ctx context.Context, booking model.Booking, tripName string, net int64) (string, error) {
	session, err := s.payment.CreateCheckoutSession(ctx, payment.CheckoutParams{
		BookingID:     booking.ID,
		PaymentOption: booking.PaymentOption,
		CustomerEmail: booking.ContactEmail,
		ProductName:   productName(shared.FirstNonEmpty(tripName, s.cfg.Payment.ProductPrefix), booking.PaymentOption),
		Currency:      booking.Currency,
		AmountCents:   s.pricing.GrossAmount(net),
	})
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to create checkout session")

		return "", httpclient.AsFailure(err, msgProviderUnavailable)
	}

	// the session also carries the booking id, so a lost write here is still reconcilable
	_, err = s.repo.Update(ctx, map[string]any{
		model.FieldCheckoutSessionID: session.ID,
		constant.FieldModifiedAt:     timezone.Now(),
	}, shared.FilterByID(booking.ID, model.FieldID))
	if err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to store checkout session id")
	}

	return session.URL, nil
}

func productName(name, option string) string {
	switch option {
	case pricingModel.PaymentOptionFull:
		return name + " - Full Payment"
	case pricingModel.PaymentOptionPlan:
		return name + " - Payment Plan Deposit"
	default:
		return name + " - Deposit"
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, status string) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !dto.ValidStatusFilter(status) {
		return res, failure.BadRequestFromString("unknown booking status: " + status) //nolint:wrapcheck
	}

	params.Restrict(dto.SortableFields...)

	filter := gDto.And()
	if status != "" {
		filter = gDto.And(gDto.Eq(model.FieldStatus, status))
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(bookings, total, params.Limit)

	return res, nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Cancel")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user := actor(ctx, constant.SystemUser)

	var from string

	err = s.repo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}

		from = locked.Status

		if locked.Status == model.StatusCanceled {
			return nil
		}

		if !model.CanCancel(locked.Status) {
			return failure.Conflict(fmt.Sprintf("Booking is already %s", locked.Status)) //nolint:wrapcheck
		}

		return s.updateTx(ctx, tx, id, user, map[string]any{
			model.FieldStatus:       model.StatusCanceled,
			model.FieldCancelReason: req.Reason,
		})
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	if from != model.StatusCanceled {
		log.Info().Str("booking_id", id).Str("from", from).Str("by", user).Msg("booking canceled")
		s.publish(ctx, id, from, model.StatusCanceled, "", req.Reason)
	}

	return nil
}

func (s *serviceImpl) RecordPayment(ctx context.Context, id string, req dto.RecordPaymentRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.RecordPayment")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user := actor(ctx, constant.SystemUser)

	var from string

	var updated model.Booking

	err = s.repo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}

		from = locked.Status

		switch {
		case locked.Status == model.StatusCanceled || locked.Status == model.StatusFailed:
			return failure.Conflict(fmt.Sprintf("Cannot record a payment on a %s booking", locked.Status)) //nolint:wrapcheck
		case req.AmountPaidCents < locked.AmountPaidCents:
			return failure.BadRequestFromString("amount_paid_cents cannot decrease") //nolint:wrapcheck
		case req.AmountPaidCents > locked.TotalPriceCents:
			return failure.BadRequestFromString("amount_paid_cents cannot exceed the booking total") //nolint:wrapcheck
		}

		fields := map[string]any{}

		if req.AmountPaidCents != locked.AmountPaidCents {
			fields[model.FieldAmountPaidCents] = req.AmountPaidCents
			locked.AmountPaidCents = req.AmountPaidCents
		}

		if model.IsPayable(locked.Status) && req.AmountPaidCents > 0 {
			if target := locked.StatusAfterPayment(req.AmountPaidCents); model.CanTransition(locked.Status, target) && target != locked.Status {
				fields[model.FieldStatus] = target
				locked.Status = target
			}
		}

		updated = locked

		if len(fields) == 0 {
			return nil
		}

		return s.updateTx(ctx, tx, id, user, fields)
	})
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	log.Info().Str("booking_id", id).Int64("amount_paid_cents", updated.AmountPaidCents).Str("by", user).Msg("payment recorded")

	if from != updated.Status {
		s.publish(ctx, id, from, updated.Status, "", "manual payment")
	}

	res.FromModel(updated)

	return res, nil
}

// matcher yields a lookup filter for an event, or false when the event lacks the key.
type matcher struct {
	name   string
	filter func(event payment.Event) (gDto.FilterGroup, bool)
}

var matchers = []matcher{
	{
		name: model.FieldID,
		filter: func(event payment.Event) (gDto.FilterGroup, bool) {
			return shared.FilterByID(event.BookingID, model.FieldID), event.BookingID != ""
		},
	},
	{
		name: model.FieldCheckoutSessionID,
		filter: func(event payment.Event) (gDto.FilterGroup, bool) {
			return gDto.And(gDto.Eq(model.FieldCheckoutSessionID, event.SessionID)), event.SessionID != ""
		},
	},
}

func (s *serviceImpl) Reconcile(ctx context.Context, event payment.Event) (res dto.ReconcileResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Reconcile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, found, err := s.match(ctx, event)
	if err != nil {
		return res, err
	}

	if !found {
		log.Warn().Str("event_id", event.ID).Str("event_type", event.Type).Msg("payment event matched no booking")

		return res, nil
	}

	res.BookingID = booking.ID

	err = s.repo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.lockBooking(ctx, tx, booking.ID)
		if err != nil {
			return err
		}

		res.From, res.Status = locked.Status, locked.Status

		fields, target, err := s.applyEvent(ctx, tx, locked, event)
		if err != nil {
			return err
		}

		if target != "" && target != locked.Status {
			if model.CanTransition(locked.Status, target) {
				fields[model.FieldStatus] = target
				res.Status = target
			} else {
				log.Warn().
					Str("booking_id", locked.ID).
					Str("from", locked.Status).
					Str("to", target).
					Str("event_type", event.Type).
					Msg("ignoring transition outside the booking graph")
			}
		}

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
		log.Info().Str("booking_id", res.BookingID).Str("from", res.From).Str("to", res.Status).Str("event_id", event.ID).Msg("booking transitioned")
		s.publish(ctx, res.BookingID, res.From, res.Status, event.ID, event.Type)
	}

	return res, nil
}

// applyEvent returns the column changes and the target status an event asks for.
func (s *serviceImpl) applyEvent(ctx context.Context, tx *sqlx.Tx, booking model.Booking, event payment.Event) (map[string]any, string, error) {
	fields := map[string]any{}

	if event.SessionID != "" && booking.CheckoutSessionID == "" {
		fields[model.FieldCheckoutSessionID] = event.SessionID
	}

	switch event.Type {
	case payment.EventCheckoutCompleted, payment.EventInvoicePaid:
		if event.PaymentStatus != "" && event.PaymentStatus != payment.PaymentStatusPaid && event.PaymentStatus != payment.PaymentStatusNoPayment {
			log.Info().Str("booking_id", booking.ID).Str("payment_status", event.PaymentStatus).Msg("checkout completed without payment yet")

			return fields, "", nil
		}

		// amount_paid is a counter, so it moves at most once per provider event
		claimed, err := s.repo.ClaimEventTx(ctx, tx, payment.ProviderName, event.ID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to claim payment event: %w", err)
		}

		if !claimed {
			log.Info().Str("booking_id", booking.ID).Str("event_id", event.ID).Msg("payment event already applied")

			return fields, "", nil
		}

		paid := min(booking.TotalPriceCents, booking.AmountPaidCents+s.pricing.NetAmount(event.AmountTotalCents))
		if paid != booking.AmountPaidCents {
			fields[model.FieldAmountPaidCents] = paid
		}

		if !model.IsPayable(booking.Status) {
			return fields, "", nil
		}

		return fields, booking.StatusAfterPayment(paid), nil
	case payment.EventCheckoutExpired:
		// a retried checkout replaces the session, so only the current one can fail the booking
		if booking.CheckoutSessionID != "" && event.SessionID != booking.CheckoutSessionID {
			log.Info().Str("booking_id", booking.ID).Str("session_id", event.SessionID).Msg("ignoring expiry of a replaced checkout session")

			return fields, "", nil
		}

		if booking.Status == model.StatusInitiated {
			return fields, model.StatusFailed, nil
		}
	case payment.EventInvoiceFailed:
		if booking.Status == model.StatusActivePlan {
			return fields, model.StatusPastDue, nil
		}

		return fields, model.StatusFailed, nil
	case payment.EventChargeRefunded:
		log.Info().Str("booking_id", booking.ID).Str("event_id", event.ID).Msg("charge refunded, manual review required")
	default:
		log.Debug().Str("event_type", event.Type).Msg("payment event type not handled")
	}

	return fields, "", nil
}

func (s *serviceImpl) match(ctx context.Context, event payment.Event) (model.Booking, bool, error) {
	for _, m := range matchers {
		filter, ok := m.filter(event)
		if !ok {
			continue
		}

		booking, err := s.repo.Get(ctx, filter)
		if errors.Is(err, gRepo.ErrNotFound) {
			continue
		}

		if err != nil {
			log.Error().Err(err).Str("matcher", m.name).Msg("failed to match payment event")

			return booking, false, fmt.Errorf("failed to match payment event: %w", err)
		}

		return booking, true, nil
	}

	return model.Booking{}, false, nil
}

func (s *serviceImpl) getBooking(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID))
	if errors.Is(err, gRepo.ErrNotFound) {
		return booking, failure.NotFound(msgBookingNotFound) //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("booking_id", id).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}

func (s *serviceImpl) lockBooking(ctx context.Context, tx *sqlx.Tx, id string) (model.Booking, error) {
	booking, err := s.repo.GetForUpdateTx(ctx, tx, shared.FilterByID(id, model.FieldID))
	if errors.Is(err, gRepo.ErrNotFound) {
		return booking, failure.NotFound(msgBookingNotFound) //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("booking_id", id).Msg("failed to lock booking")

		return booking, fmt.Errorf("failed to lock booking: %w", err)
	}

	return booking, nil
}

func (s *serviceImpl) updateTx(ctx context.Context, tx *sqlx.Tx, id, user string, fields map[string]any) error {
	fields[constant.FieldModifiedAt] = timezone.Now()
	fields[constant.FieldModifiedBy] = user

	if _, err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(id, model.FieldID)); err != nil {
		log.Error().Err(err).Str("booking_id", id).Msg("failed to update booking")

		return fmt.Errorf("failed to update booking: %w", err)
	}

	return nil
}

func (s *serviceImpl) publish(ctx context.Context, id, from, to, eventID, reason string) {
	s.publisher.StatusChanged(ctx, events.StatusChanged{
		Entity:  events.EntityBooking,
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
