package intent_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retreat/infras/otel/mocks"
	"retreat/internal/domains/intent/model/dto"
	serviceMocks "retreat/internal/domains/intent/service/mocks"
	"retreat/internal/handlers/intent"
	"retreat/shared/failure"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const validIntent = `{"trip_id":"tr_1","package_id":"pk_1","travelers_count":2,` +
	`"traveler_primary":{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com"}}`

func newRouter(t *testing.T) (*serviceMocks.MockIntent, http.Handler) {
	ctrl := gomock.NewController(t)
	svc := serviceMocks.NewMockIntent(ctrl)

	handler := intent.New(svc, mocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)
	router.Route("/admin", handler.AdminRouter)

	return svc, router
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, path, strings.NewReader(body)))

	return recorder
}

func TestCreateIntent(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req dto.CreateIntentRequest) (dto.CreateIntentResponse, error) {
			assert.Equal(t, 2, req.TravelersCount)
			assert.Equal(t, "Ada", req.TravelerPrimary.FirstName)

			return dto.CreateIntentResponse{IntentID: "in_1", URL: "https://travel.example/checkout", Status: "handed_off"}, nil
		})

	recorder := serve(router, http.MethodPost, "/intents", validIntent)

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.JSONEq(t,
		`{"data":{"intent_id":"in_1","url":"https://travel.example/checkout","status":"handed_off"}}`,
		recorder.Body.String())
}

func TestCreateIntentFailures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		callsSvc bool
		wantCode int
	}{
		{name: "no travelers", body: strings.Replace(validIntent, `"travelers_count":2`, `"travelers_count":0`, 1), wantCode: http.StatusBadRequest},
		{name: "bad email", body: strings.Replace(validIntent, "ada@example.com", "ada", 1), wantCode: http.StatusBadRequest},
		{name: "missing traveler", body: `{"trip_id":"tr_1","package_id":"pk_1","travelers_count":1}`, wantCode: http.StatusBadRequest},
		{name: "unknown trip", body: validIntent, svcErr: failure.NotFound("Trip not found"), callsSvc: true, wantCode: http.StatusNotFound},
		{name: "provider rejected", body: validIntent, svcErr: failure.BadGateway("travel provider failed", http.StatusUnprocessableEntity), callsSvc: true, wantCode: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)

			if tt.callsSvc {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(dto.CreateIntentResponse{}, tt.svcErr)
			}

			recorder := serve(router, http.MethodPost, "/intents", tt.body)

			assert.Equal(t, tt.wantCode, recorder.Code)
		})
	}
}

func TestGetIntents(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().GetAll(gomock.Any(), gomock.Any(), "paid").
		Return(dto.GetIntentsResponse{Intents: []dto.IntentResponse{{ID: "in_1"}}, TotalData: 1, TotalPage: 1}, nil)

	recorder := serve(router, http.MethodGet, "/admin/intents?status=paid", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":"in_1"`)
}

func TestGetIntentByID(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Get(gomock.Any(), "in_1").
		Return(dto.IntentResponse{ID: "in_1", ExternalRefs: map[string]string{"lead_id": "lead_1"}}, nil)

	recorder := serve(router, http.MethodGet, "/admin/intents/in_1", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"lead_id":"lead_1"`)
}

func TestCancelIntent(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		callsSvc bool
		wantCode int
	}{
		{name: "canceled", body: `{"reason":"duplicate"}`, callsSvc: true, wantCode: http.StatusOK},
		{name: "already paid", body: `{"reason":"duplicate"}`, svcErr: failure.Conflict("Intent is already paid"), callsSvc: true, wantCode: http.StatusConflict},
		{name: "missing reason", body: `{}`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)

			if tt.callsSvc {
				svc.EXPECT().Cancel(gomock.Any(), "in_1", dto.CancelIntentRequest{Reason: "duplicate"}).Return(tt.svcErr)
			}

			recorder := serve(router, http.MethodPost, "/admin/intents/in_1/cancel", tt.body)

			assert.Equal(t, tt.wantCode, recorder.Code)
		})
	}
}
