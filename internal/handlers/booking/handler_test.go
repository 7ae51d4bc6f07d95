package booking_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retreat/infras/otel/mocks"
	"retreat/internal/domains/booking/model/dto"
	serviceMocks "retreat/internal/domains/booking/service/mocks"
	"retreat/internal/handlers/booking"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const validBooking = `{"trip_id":"tr_1","package_id":"pk_1","guests":1,"contact_name":"Ada",` +
	`"contact_email":"ada@example.com","payment_option":"full"}`

func newRouter(t *testing.T) (*serviceMocks.MockBooking, http.Handler) {
	ctrl := gomock.NewController(t)
	svc := serviceMocks.NewMockBooking(ctrl)

	handler := booking.New(svc, mocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)
	router.Route("/admin", handler.AdminRouter)

	return svc, router
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, request)

	return recorder
}

func TestCreateBooking(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req dto.CreateBookingRequest) (dto.CheckoutResponse, error) {
			assert.Equal(t, "tr_1", req.TripID)
			assert.Equal(t, "full", req.PaymentOption)

			return dto.CheckoutResponse{URL: "https://pay.example/cs_1", BookingID: "bk_1"}, nil
		})

	recorder := serve(router, http.MethodPost, "/bookings", validBooking)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "https://pay.example/cs_1", body["url"])
	assert.Equal(t, "bk_1", body["bookingId"])
}

func TestCreateBookingFailures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		callsSvc bool
		wantCode int
	}{
		{name: "malformed json", body: `{"trip_id":`, wantCode: http.StatusBadRequest},
		{name: "missing contact", body: `{"trip_id":"tr_1","package_id":"pk_1","guests":1,"payment_option":"full"}`, wantCode: http.StatusBadRequest},
		{name: "unknown payment option", body: strings.Replace(validBooking, `"full"`, `"later"`, 1), wantCode: http.StatusBadRequest},
		{name: "unknown package", body: validBooking, svcErr: failure.NotFound("Package not found"), callsSvc: true, wantCode: http.StatusNotFound},
		{name: "provider down", body: validBooking, svcErr: failure.BadGateway("payment provider failed", http.StatusServiceUnavailable), callsSvc: true, wantCode: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)

			if tt.callsSvc {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(dto.CheckoutResponse{}, tt.svcErr)
			}

			recorder := serve(router, http.MethodPost, "/bookings", tt.body)

			assert.Equal(t, tt.wantCode, recorder.Code)
		})
	}
}

func TestCheckout(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Checkout(gomock.Any(), "bk_1").Return(dto.CheckoutResponse{URL: "https://pay.example/cs_2"}, nil)

	recorder := serve(router, http.MethodPost, "/checkout", `{"bookingId":"bk_1"}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"url":"https://pay.example/cs_2"}`, recorder.Body.String())
}

func TestCheckoutRequiresBookingID(t *testing.T) {
	_, router := newRouter(t)

	recorder := serve(router, http.MethodPost, "/checkout", `{"bookingId":"  "}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetBookings(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().GetAll(gomock.Any(), gomock.Any(), "paid").DoAndReturn(
		func(_ any, params gDto.QueryParams, _ string) (dto.GetBookingsResponse, error) {
			assert.Equal(t, 2, params.Page)

			return dto.GetBookingsResponse{TotalData: 1, TotalPage: 1, Bookings: []dto.BookingResponse{{ID: "bk_1"}}}, nil
		})

	recorder := serve(router, http.MethodGet, "/admin/bookings?status=paid&page=2", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":"bk_1"`)
}

func TestGetBookingByIDNotFound(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Get(gomock.Any(), "bk_missing").Return(dto.BookingResponse{}, failure.NotFound("Booking not found"))

	recorder := serve(router, http.MethodGet, "/admin/bookings/bk_missing", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(t, `{"error":"Booking not found"}`, recorder.Body.String())
}

func TestCancelBooking(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Cancel(gomock.Any(), "bk_1", dto.CancelBookingRequest{Reason: "guest request"}).Return(nil)

	recorder := serve(router, http.MethodPost, "/admin/bookings/bk_1/cancel", `{"reason":"guest request"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestCancelBookingConflict(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Cancel(gomock.Any(), "bk_1", gomock.Any()).Return(failure.Conflict("Booking is already paid"))

	recorder := serve(router, http.MethodPost, "/admin/bookings/bk_1/cancel", `{"reason":"late"}`)

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestRecordPayment(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().RecordPayment(gomock.Any(), "bk_1", dto.RecordPaymentRequest{AmountPaidCents: 25000}).
		Return(dto.BookingResponse{ID: "bk_1", Status: "deposit_paid"}, nil)

	recorder := serve(router, http.MethodPost, "/admin/bookings/bk_1/payments", `{"amount_paid_cents":25000}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"deposit_paid"`)
}

func TestRecordPaymentRejectsNegative(t *testing.T) {
	_, router := newRouter(t)

	recorder := serve(router, http.MethodPost, "/admin/bookings/bk_1/payments", `{"amount_paid_cents":-1}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
