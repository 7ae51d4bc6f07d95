package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retreat/infras/otel/mocks"
	"retreat/internal/domains/account/model/dto"
	serviceMocks "retreat/internal/domains/account/service/mocks"
	"retreat/internal/handlers/auth"
	"retreat/shared/failure"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newRouter(t *testing.T) (*serviceMocks.MockAccount, http.Handler) {
	ctrl := gomock.NewController(t)
	svc := serviceMocks.NewMockAccount(ctrl)

	handler := auth.New(svc, mocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)
	router.Route("/admin", handler.AdminRouter)

	return svc, router
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		setupMock func(svc *serviceMocks.MockAccount)
		wantCode  int
		wantBody  string
	}{
		{
			name: "success",
			body: `{"email":"ops@retreat.test","password":"secret"}`,
			setupMock: func(svc *serviceMocks.MockAccount) {
				svc.EXPECT().Login(gomock.Any(), dto.LoginRequest{Email: "ops@retreat.test", Password: "secret"}).
					Return(dto.LoginResponse{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 3600, Role: "admin"}, nil)
			},
			wantCode: http.StatusOK,
			wantBody: `"access_token":"tok"`,
		},
		{
			name:      "invalid email",
			body:      `{"email":"nope","password":"secret"}`,
			setupMock: func(_ *serviceMocks.MockAccount) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "bad credentials",
			body: `{"email":"ops@retreat.test","password":"wrong"}`,
			setupMock: func(svc *serviceMocks.MockAccount) {
				svc.EXPECT().Login(gomock.Any(), gomock.Any()).Return(dto.LoginResponse{}, failure.Unauthorized("Invalid email or password"))
			},
			wantCode: http.StatusUnauthorized,
			wantBody: "Invalid email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			tt.setupMock(svc)

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, recorder.Code)

			if tt.wantBody != "" {
				assert.Contains(t, recorder.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, router := newRouter(t)

		svc.EXPECT().ChangePassword(gomock.Any(), dto.ChangePasswordRequest{
			CurrentPassword: "old password value",
			NewPassword:     "new password value",
		}).Return(nil)

		body := `{"current_password":"old password value","new_password":"new password value"}`

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("same password rejected", func(t *testing.T) {
		_, router := newRouter(t)

		body := `{"current_password":"same password value","new_password":"same password value"}`

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestCreateAccount(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc, router := newRouter(t)

		svc.EXPECT().Create(gomock.Any(), dto.CreateAccountRequest{
			Email:    "guest@retreat.test",
			Password: "long enough secret",
			Role:     "traveler",
		}).Return(dto.AccountResponse{ID: "ac_1", Email: "guest@retreat.test", Role: "traveler", Active: true}, nil)

		body := `{"email":"guest@retreat.test","password":"long enough secret","role":"traveler"}`

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/admin/accounts", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"id":"ac_1"`)
		assert.NotContains(t, recorder.Body.String(), "password")
	})

	t.Run("unknown role", func(t *testing.T) {
		_, router := newRouter(t)

		body := `{"email":"guest@retreat.test","password":"long enough secret","role":"root"}`

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/admin/accounts", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		svc, router := newRouter(t)

		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(dto.AccountResponse{}, failure.Conflict("Account with this email already exists"))

		body := `{"email":"guest@retreat.test","password":"long enough secret","role":"traveler"}`

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/admin/accounts", strings.NewReader(body)))

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}
