package service_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"retreat/config"
	"retreat/infras/otel/mocks"
	"retreat/infras/travel"
	travelMocks "retreat/infras/travel/mocks"
	intentMocks "retreat/internal/domains/intent/mocks"
	"retreat/internal/domains/intent/model"
	"retreat/internal/domains/intent/model/dto"
	"retreat/internal/domains/intent/service"
	tripModel "retreat/internal/domains/trip/model"
	tripMocks "retreat/internal/domains/trip/service/mocks"
	"retreat/internal/events"
	eventMocks "retreat/internal/events/mocks"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"
	"retreat/shared/httpclient"
	gModel "retreat/shared/model"
	gRepo "retreat/shared/repository"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	repo      *intentMocks.MockIntent
	trip      *tripMocks.MockTrip
	travel    *travelMocks.MockProvider
	publisher *eventMocks.MockPublisher
	svc       service.Intent
}

func newFixture(t *testing.T, mode string) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo:      intentMocks.NewMockIntent(ctrl),
		trip:      tripMocks.NewMockTrip(ctrl),
		travel:    travelMocks.NewMockProvider(ctrl),
		publisher: eventMocks.NewMockPublisher(ctrl),
	}

	cfg := &config.Config{}
	cfg.Travel.Mode = mode

	f.svc = service.New(f.repo, f.trip, f.travel, f.publisher, cfg, mocks.NewOtel())

	return f
}

func (f fixture) expectTx() {
	f.repo.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
}

func assertCode(t *testing.T, err error, code int) {
	t.Helper()

	require.Error(t, err)
	assert.Equal(t, code, failure.GetCode(err), "error: %v", err)
}

var (
	oceanView = tripModel.Package{
		ID: "pk_1", TripID: "tr_1", Name: "Ocean View", Nights: 4, Occupancy: "double",
		PricePerPersonCents: 90000, ProviderPackageName: "ocean-view-double",
	}
	createRequest = dto.CreateIntentRequest{
		TripID:          "tr_1",
		PackageID:       "pk_1",
		TravelerPrimary: dto.TravelerRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ADA@example.com"},
		TravelersCount:  2,
	}
)

func TestIntentService_CreatePrefill(t *testing.T) {
	f := newFixture(t, service.ModePrefill)

	var inserted model.Intent

	f.trip.EXPECT().Resolve(gomock.Any(), "tr_1", "pk_1").Return(tripModel.Trip{ID: "tr_1"}, oceanView, nil)
	f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, intent model.Intent) error {
		inserted = intent

		return nil
	})
	f.travel.EXPECT().PrefillURL(gomock.Any()).DoAndReturn(func(params travel.PrefillParams) (string, error) {
		assert.Equal(t, inserted.ID, params.IntentID)
		assert.Equal(t, "ocean-view-double", params.PackageID)
		assert.Equal(t, 2, params.Guests)
		assert.Equal(t, "ada@example.com", params.Traveler.Email)

		return "https://trips.example.com/jamaica?notes=Intent%3A+" + params.IntentID, nil
	})
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
			assert.Equal(t, model.StatusHandedOff, fields[model.FieldStatus])
			assert.IsType(t, time.Time{}, fields[model.FieldHandedOffAt])

			refs, ok := fields[model.FieldExternalRefs].(gModel.Refs)
			require.True(t, ok)
			assert.True(t, strings.HasPrefix(refs.Get(model.RefPaymentLink), "https://trips.example.com/jamaica"))
			assert.Equal(t, shared.FilterByID(inserted.ID, model.FieldID), filter)

			return 1, nil
		})
	f.publisher.EXPECT().StatusChanged(gomock.Any(), gomock.Any()).Do(func(_ context.Context, change events.StatusChanged) {
		assert.Equal(t, events.EntityIntent, change.Entity)
		assert.Equal(t, model.StatusDraft, change.From)
		assert.Equal(t, model.StatusHandedOff, change.To)
	})

	res, err := f.svc.Create(context.Background(), createRequest)
	require.NoError(t, err)

	assert.Equal(t, inserted.ID, res.IntentID)
	assert.Equal(t, model.StatusHandedOff, res.Status)
	assert.Contains(t, res.URL, inserted.ID)

	assert.True(t, strings.HasPrefix(inserted.ID, "in_"))
	assert.Equal(t, model.StatusDraft, inserted.Status)
	assert.Equal(t, model.PaymentUnpaid, inserted.PaymentStatus)
	assert.Equal(t, model.FulfillmentPending, inserted.FulfillmentStatus)
	assert.Equal(t, int64(180000), inserted.TotalPriceCents)
	assert.Equal(t, 4, inserted.Nights)
}

func TestIntentService_CreateAPI(t *testing.T) {
	f := newFixture(t, service.ModeAPI)

	var inserted model.Intent

	f.trip.EXPECT().Resolve(gomock.Any(), "tr_1", "pk_1").Return(tripModel.Trip{ID: "tr_1"}, oceanView, nil)
	f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, intent model.Intent) error {
		inserted = intent

		return nil
	})
	f.travel.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params travel.BookingParams) (travel.RemoteBooking, error) {
			assert.Equal(t, inserted.ID, params.IntentID)
			assert.Equal(t, int64(180000), params.TotalCents)
			assert.Equal(t, "ocean-view-double", params.PackageName)

			return travel.RemoteBooking{ID: "wt_1", LeadID: "lead_1"}, nil
		})
	f.travel.EXPECT().CreatePaymentLink(gomock.Any(), "wt_1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _, key string) (string, error) {
			assert.Equal(t, "link-"+inserted.ID, key)

			return "https://pay.example.com/wt_1", nil
		})
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
			assert.Equal(t, gModel.Refs{
				model.RefBookingID:   "wt_1",
				model.RefLeadID:      "lead_1",
				model.RefPaymentLink: "https://pay.example.com/wt_1",
			}, fields[model.FieldExternalRefs])

			return 1, nil
		})
	f.publisher.EXPECT().StatusChanged(gomock.Any(), gomock.Any())

	res, err := f.svc.Create(context.Background(), createRequest)
	require.NoError(t, err)

	assert.Equal(t, dto.CreateIntentResponse{
		IntentID: inserted.ID,
		URL:      "https://pay.example.com/wt_1",
		LeadID:   "lead_1",
		Status:   model.StatusHandedOff,
	}, res)
}

func TestIntentService_CreateFailures(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "unknown package",
			mode: service.ModeAPI,
			setupMock: func(f fixture) {
				f.trip.EXPECT().Resolve(gomock.Any(), "tr_1", "pk_1").Return(tripModel.Trip{}, tripModel.Package{}, failure.NotFound("Package not found"))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "remote booking rejected stays draft",
			mode: service.ModeAPI,
			setupMock: func(f fixture) {
				f.trip.EXPECT().Resolve(gomock.Any(), "tr_1", "pk_1").Return(tripModel.Trip{}, oceanView, nil)
				f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				f.travel.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
					Return(travel.RemoteBooking{}, &httpclient.UpstreamError{Operation: "create booking", Status: http.StatusBadRequest})
			},
			wantCode: http.StatusBadGateway,
		},
		{
			name: "payment link failure keeps the remote booking id",
			mode: service.ModeAPI,
			setupMock: func(f fixture) {
				f.trip.EXPECT().Resolve(gomock.Any(), "tr_1", "pk_1").Return(tripModel.Trip{}, oceanView, nil)
				f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				f.travel.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).Return(travel.RemoteBooking{ID: "wt_1"}, nil)
				f.travel.EXPECT().CreatePaymentLink(gomock.Any(), "wt_1", gomock.Any()).Return("", errors.New("timeout"))
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, gModel.Refs{model.RefBookingID: "wt_1"}, fields[model.FieldExternalRefs])
						assert.NotContains(t, fields, model.FieldStatus)

						return 1, nil
					})
			},
			wantCode: http.StatusBadGateway,
		},
		{
			name: "prefill without checkout url",
			mode: service.ModePrefill,
			setupMock: func(f fixture) {
				f.trip.EXPECT().Resolve(gomock.Any(), "tr_1", "pk_1").Return(tripModel.Trip{}, oceanView, nil)
				f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				f.travel.EXPECT().PrefillURL(gomock.Any()).Return("", travel.ErrMissingCheckout)
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.mode)
			tt.setupMock(f)

			_, err := f.svc.Create(context.Background(), createRequest)
			assertCode(t, err, tt.wantCode)
		})
	}
}

func handedOff(id string, refs gModel.Refs) model.Intent {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	return model.Intent{
		ID:                id,
		Status:            model.StatusHandedOff,
		PaymentStatus:     model.PaymentUnpaid,
		FulfillmentStatus: model.FulfillmentPending,
		ExternalRefs:      refs,
		HandedOffAt:       &at,
		TotalPriceCents:   180000,
	}
}

func TestIntentService_ReconcileMatchOrder(t *testing.T) {
	intent := handedOff("in_1", gModel.Refs{model.RefLeadID: "lead_1"})

	tests := []struct {
		name      string
		event     travel.Event
		setupMock func(f fixture)
	}{
		{
			name:  "lead id first",
			event: travel.Event{Type: "booking.paid", LeadID: "lead_1", BookingID: "wt_1", InternalReference: "in_1"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gDto.And(model.RefFilter(model.RefLeadID, "lead_1"))).Return(intent, nil)
			},
		},
		{
			name:  "booking id when lead id misses",
			event: travel.Event{Type: "booking.paid", LeadID: "lead_x", BookingID: "wt_1"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gDto.And(model.RefFilter(model.RefLeadID, "lead_x"))).Return(model.Intent{}, gRepo.ErrNotFound)
				f.repo.EXPECT().Get(gomock.Any(), gDto.And(model.RefFilter(model.RefBookingID, "wt_1"))).Return(intent, nil)
			},
		},
		{
			name:  "internal reference last",
			event: travel.Event{Type: "booking.paid", InternalReference: "in_1"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), shared.FilterByID("in_1", model.FieldID)).Return(intent, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, service.ModeAPI)
			tt.setupMock(f)

			f.expectTx()
			f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), shared.FilterByID("in_1", model.FieldID)).Return(intent, nil)
			f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
			f.publisher.EXPECT().StatusChanged(gomock.Any(), gomock.Any())

			res, err := f.svc.Reconcile(context.Background(), tt.event)
			require.NoError(t, err)

			assert.Equal(t, "in_1", res.IntentID)
			assert.Equal(t, model.StatusPaid, res.Status)
		})
	}
}

func TestIntentService_ReconcileUnmatched(t *testing.T) {
	f := newFixture(t, service.ModeAPI)

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Intent{}, gRepo.ErrNotFound).Times(3)

	res, err := f.svc.Reconcile(context.Background(), travel.Event{
		Type: "booking.paid", LeadID: "lead_x", BookingID: "wt_x", InternalReference: "in_x",
	})

	require.NoError(t, err)
	assert.Equal(t, dto.ReconcileResult{}, res)
}

func TestIntentService_ReconcileEventTable(t *testing.T) {
	paid := handedOff("in_1", gModel.Refs{})
	paid.PaymentStatus = model.PaymentPaid
	paid.Status = model.StatusPaid

	canceled := handedOff("in_1", gModel.Refs{})
	canceled.FulfillmentStatus = model.FulfillmentCanceled
	canceled.Status = model.StatusCanceled

	tests := []struct {
		name       string
		intent     model.Intent
		eventType  string
		wantStatus string
		wantFields map[string]any
	}{
		{name: "payment succeeded", intent: handedOff("in_1", gModel.Refs{}), eventType: "payment.succeeded", wantStatus: model.StatusPaid,
			wantFields: map[string]any{model.FieldPaymentStatus: model.PaymentPaid}},
		{name: "payment completed", intent: handedOff("in_1", gModel.Refs{}), eventType: "payment.completed", wantStatus: model.StatusPaid},
		{name: "confirmed", intent: handedOff("in_1", gModel.Refs{}), eventType: "booking.confirmed", wantStatus: model.StatusConfirmed,
			wantFields: map[string]any{model.FieldFulfillmentStatus: model.FulfillmentConfirmed}},
		{name: "complete after paid", intent: paid, eventType: "booking.complete", wantStatus: model.StatusConfirmed},
		{name: "cancelled spelling", intent: handedOff("in_1", gModel.Refs{}), eventType: "booking.cancelled", wantStatus: model.StatusCanceled},
		{name: "canceled after paid", intent: paid, eventType: "booking.canceled", wantStatus: model.StatusCanceled},
		{name: "payment failed", intent: handedOff("in_1", gModel.Refs{}), eventType: "payment.failed", wantStatus: model.StatusFailed},
		{name: "booking failed", intent: handedOff("in_1", gModel.Refs{}), eventType: "booking.failed", wantStatus: model.StatusFailed},
		{name: "failure never overrides paid", intent: paid, eventType: "payment.failed", wantStatus: model.StatusPaid},
		{name: "canceled is not confirmed again", intent: canceled, eventType: "booking.confirmed", wantStatus: model.StatusCanceled},
		{name: "unknown type only logs", intent: handedOff("in_1", gModel.Refs{}), eventType: "booking.updated", wantStatus: model.StatusHandedOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, service.ModeAPI)

			f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.intent, nil)
			f.expectTx()
			f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.intent, nil)

			changed := tt.wantStatus != tt.intent.Status
			if changed {
				f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, tt.wantStatus, fields[model.FieldStatus])

						for key, value := range tt.wantFields {
							assert.Equal(t, value, fields[key], key)
						}

						return 1, nil
					})
				f.publisher.EXPECT().StatusChanged(gomock.Any(), gomock.Any())
			}

			res, err := f.svc.Reconcile(context.Background(), travel.Event{Type: tt.eventType, InternalReference: "in_1"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, changed, res.Applied)
		})
	}
}

// Two deliveries of booking.paid: the first moves the intent to paid and records the
// transaction, the second finds nothing to change and writes nothing.
func TestIntentService_ReconcileDuplicatePaid(t *testing.T) {
	f := newFixture(t, service.ModeAPI)

	event := travel.Event{ID: "evt_1", Type: "booking.paid", LeadID: "lead_1", BookingID: "wt_1", TransactionID: "tx_1"}
	stored := handedOff("in_1", gModel.Refs{model.RefLeadID: "lead_1"})

	f.repo.EXPECT().Get(gomock.Any(), gDto.And(model.RefFilter(model.RefLeadID, "lead_1"))).
		DoAndReturn(func(context.Context, gDto.FilterGroup) (model.Intent, error) { return stored, nil }).Times(2)
	f.repo.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(tx *sqlx.Tx) error) error { return fn(nil) }).Times(2)
	f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *sqlx.Tx, gDto.FilterGroup) (model.Intent, error) { return stored, nil }).Times(2)

	// the single write is applied to the stored copy, as the database would
	f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
			assert.Equal(t, gModel.Refs{model.RefLeadID: "lead_1", model.RefBookingID: "wt_1", model.RefTransactionID: "tx_1"},
				fields[model.FieldExternalRefs])

			stored.ExternalRefs = fields[model.FieldExternalRefs].(gModel.Refs)
			stored.PaymentStatus = fields[model.FieldPaymentStatus].(string)
			stored.Status = fields[model.FieldStatus].(string)

			return 1, nil
		}).Times(1)
	f.publisher.EXPECT().StatusChanged(gomock.Any(), gomock.Any()).Times(1)

	first, err := f.svc.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, dto.ReconcileResult{IntentID: "in_1", From: model.StatusHandedOff, Status: model.StatusPaid, Applied: true}, first)

	second, err := f.svc.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, dto.ReconcileResult{IntentID: "in_1", From: model.StatusPaid, Status: model.StatusPaid}, second)

	assert.Equal(t, int64(180000), stored.TotalPriceCents)
}

func TestIntentService_Cancel(t *testing.T) {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin_1")

	confirmed := handedOff("in_1", gModel.Refs{})
	confirmed.FulfillmentStatus = model.FulfillmentConfirmed
	confirmed.Status = model.StatusConfirmed

	canceled := handedOff("in_1", gModel.Refs{})
	canceled.FulfillmentStatus = model.FulfillmentCanceled
	canceled.Status = model.StatusCanceled

	tests := []struct {
		name     string
		intent   model.Intent
		lockErr  error
		wantCode int
		updated  bool
	}{
		{name: "handed off", intent: handedOff("in_1", gModel.Refs{}), updated: true},
		{name: "already canceled", intent: canceled},
		{name: "confirmed", intent: confirmed, wantCode: http.StatusConflict},
		{name: "missing", lockErr: gRepo.ErrNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, service.ModeAPI)

			f.expectTx()
			f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.intent, tt.lockErr)

			if tt.updated {
				f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, model.StatusCanceled, fields[model.FieldStatus])
						assert.Equal(t, model.FulfillmentCanceled, fields[model.FieldFulfillmentStatus])
						assert.Equal(t, "admin_1", fields[constant.FieldModifiedBy])

						return 1, nil
					})
				f.publisher.EXPECT().StatusChanged(gomock.Any(), gomock.Any())
			}

			err := f.svc.Cancel(ctx, "in_1", dto.CancelIntentRequest{Reason: "duplicate"})
			if tt.wantCode != 0 {
				assertCode(t, err, tt.wantCode)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestIntentService_GetAll(t *testing.T) {
	f := newFixture(t, service.ModeAPI)

	f.repo.EXPECT().Count(gomock.Any(), gDto.And()).Return(0, nil)
	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gDto.And()).Return([]model.Intent{}, nil)

	res, err := f.svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 20}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Intents)
	assert.Equal(t, 1, res.TotalPage)

	_, err = f.svc.GetAll(context.Background(), gDto.QueryParams{}, "lost")
	assertCode(t, err, http.StatusBadRequest)
}
