package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"retreat/config"
	"retreat/infras/otel/mocks"
	"retreat/infras/travel"
	travelMocks "retreat/infras/travel/mocks"
	intentRepoMocks "retreat/internal/domains/intent/mocks"
	intentModel "retreat/internal/domains/intent/model"
	intentDto "retreat/internal/domains/intent/model/dto"
	intentService "retreat/internal/domains/intent/service"
	tripModel "retreat/internal/domains/trip/model"
	tripMocks "retreat/internal/domains/trip/service/mocks"
	webhookMocks "retreat/internal/domains/webhook/mocks"
	"retreat/internal/domains/webhook/service"
	eventMocks "retreat/internal/events/mocks"
	"retreat/shared"
	gDto "retreat/shared/dto"
	gModel "retreat/shared/model"
	"retreat/shared/signature"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// A traveler hands off an intent in prefill mode, then the provider reports the payment
// with the intent id echoed back as internal_reference.
func TestPrefillIntentPaidByWebhook(t *testing.T) {
	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Travel.Mode = intentService.ModePrefill
	cfg.Travel.WebhookSecret = travelSecret

	intentRepo := intentRepoMocks.NewMockIntent(ctrl)
	trips := tripMocks.NewMockTrip(ctrl)
	provider := travelMocks.NewMockProvider(ctrl)
	publisher := eventMocks.NewMockPublisher(ctrl)
	webhookRepo := webhookMocks.NewMockWebhook(ctrl)

	intents := intentService.New(intentRepo, trips, provider, publisher, cfg, mocks.NewOtel())
	webhooks := service.New(webhookRepo, intents, nil, provider, nil, nil, cfg, mocks.NewOtel())

	var stored intentModel.Intent

	apply := func(fields map[string]any) {
		if refs, ok := fields[intentModel.FieldExternalRefs].(gModel.Refs); ok {
			stored.ExternalRefs = refs
		}

		if status, ok := fields[intentModel.FieldStatus].(string); ok {
			stored.Status = status
		}

		if status, ok := fields[intentModel.FieldPaymentStatus].(string); ok {
			stored.PaymentStatus = status
		}
	}

	trips.EXPECT().Resolve(gomock.Any(), "tr_1", "pk_1").Return(tripModel.Trip{ID: "tr_1"},
		tripModel.Package{ID: "pk_1", TripID: "tr_1", Nights: 4, PricePerPersonCents: 90000}, nil)
	intentRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, intent intentModel.Intent) error {
		stored = intent

		return nil
	})
	provider.EXPECT().PrefillURL(gomock.Any()).DoAndReturn(func(params travel.PrefillParams) (string, error) {
		return "https://trips.example.com/checkout?notes=Intent%3A+" + params.IntentID, nil
	})
	intentRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
			apply(fields)
			handedOffAt := fields[intentModel.FieldHandedOffAt].(time.Time)
			stored.HandedOffAt = &handedOffAt

			return 1, nil
		})
	publisher.EXPECT().StatusChanged(gomock.Any(), gomock.Any()).Times(2)

	created, err := intents.Create(context.Background(), intentDto.CreateIntentRequest{
		TripID:          "tr_1",
		PackageID:       "pk_1",
		TravelerPrimary: intentDto.TravelerRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		TravelersCount:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, intentModel.StatusHandedOff, created.Status)
	assert.Equal(t, int64(180000), stored.TotalPriceCents)

	body := []byte(fmt.Sprintf(`{"type":"booking.paid","data":{"internal_reference":%q,"transaction_id":"tx_9"}}`, created.IntentID))

	provider.EXPECT().ParseEvent(gomock.Any()).DoAndReturn(travel.ParseEvent)
	webhookRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	intentRepo.EXPECT().Get(gomock.Any(), shared.FilterByID(created.IntentID, intentModel.FieldID)).
		DoAndReturn(func(context.Context, gDto.FilterGroup) (intentModel.Intent, error) { return stored, nil })
	intentRepo.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(tx *sqlx.Tx) error) error { return fn(nil) })
	intentRepo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *sqlx.Tx, gDto.FilterGroup) (intentModel.Intent, error) { return stored, nil })
	intentRepo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
			apply(fields)

			return 1, nil
		})
	webhookRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)

	res, err := webhooks.Ingest(context.Background(), travel.ProviderName, body, signature.Sign(body, travelSecret))
	require.NoError(t, err)

	assert.Equal(t, created.IntentID, res.IntentID)
	assert.Equal(t, intentModel.StatusPaid, res.Status)
	assert.Equal(t, intentModel.StatusPaid, stored.Status)
	assert.Equal(t, "tx_9", stored.ExternalRefs.Get(intentModel.RefTransactionID))
	assert.Equal(t, int64(180000), stored.TotalPriceCents)
}
