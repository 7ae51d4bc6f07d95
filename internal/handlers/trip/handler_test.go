package trip_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retreat/infras/otel/mocks"
	"retreat/internal/domains/trip/model/dto"
	serviceMocks "retreat/internal/domains/trip/service/mocks"
	"retreat/internal/handlers/trip"
	"retreat/shared"
	"retreat/shared/failure"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newRouter(t *testing.T) (*serviceMocks.MockTrip, http.Handler) {
	ctrl := gomock.NewController(t)
	svc := serviceMocks.NewMockTrip(ctrl)

	handler := trip.New(svc, mocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)
	router.Route("/admin", handler.AdminRouter)

	return svc, router
}

func TestGetTrips(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().GetAll(gomock.Any(), gomock.Any()).
		Return(dto.GetTripsResponse{Trips: []dto.TripResponse{{ID: "tr_1", Name: "Bali"}}, TotalData: 1, TotalPage: 1}, nil)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/trips", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"name":"Bali"`)
}

func TestGetTripByID(t *testing.T) {
	tests := []struct {
		name     string
		svcErr   error
		wantCode int
	}{
		{name: "found", wantCode: http.StatusOK},
		{name: "missing", svcErr: failure.NotFound("Trip not found"), wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)

			svc.EXPECT().Get(gomock.Any(), "tr_1").Return(dto.TripResponse{ID: "tr_1"}, tt.svcErr)

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/trips/tr_1", nil))

			assert.Equal(t, tt.wantCode, recorder.Code)
		})
	}
}

func TestUpdatePaymentSettings(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().UpdatePaymentSettings(gomock.Any(), "tr_1", dto.UpdatePaymentSettingsRequest{
		PaymentPlanEnabled: shared.Ptr(false),
		MaxInstallments:    shared.Ptr(3),
	}).Return(nil)

	body := `{"payment_plan_enabled":false,"max_installments":3}`

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/admin/trips/tr_1/payment-settings", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestUpdatePaymentSettingsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad cutoff date", body: `{"plan_cutoff_date":"01/02/2027"}`},
		{name: "zero deposit", body: `{"deposit_per_person_cents":0}`},
		{name: "too many installments", body: `{"max_installments":48}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := newRouter(t)

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/admin/trips/tr_1/payment-settings", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}
