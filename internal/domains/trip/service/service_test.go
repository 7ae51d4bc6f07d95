package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"retreat/config"
	"retreat/infras/otel/mocks"
	tripMocks "retreat/internal/domains/trip/mocks"
	"retreat/internal/domains/trip/model"
	"retreat/internal/domains/trip/model/dto"
	"retreat/internal/domains/trip/service"
	"retreat/shared"
	"retreat/shared/cache"
	cacheMocks "retreat/shared/cache/mocks"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"
	gRepo "retreat/shared/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	repo        *tripMocks.MockTrip
	packageRepo *tripMocks.MockPackage
	cache       *cacheMocks.MockRedisCache
	svc         service.Trip
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo:        tripMocks.NewMockTrip(ctrl),
		packageRepo: tripMocks.NewMockPackage(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 300

	f.svc = service.New(f.repo, f.packageRepo, cfg, f.cache, mocks.NewOtel())

	return f
}

func assertCode(t *testing.T, err error, code int) {
	t.Helper()

	fail, ok := failure.As(err)
	require.True(t, ok, "expected failure, got %v", err)
	assert.Equal(t, code, fail.Code)
}

var trip = model.Trip{ID: "tr_1", Name: "Jamaica", Currency: "usd", PaymentPlanEnabled: true, Active: true}

func TestTripService_Resolve(t *testing.T) {
	pkg := model.Package{ID: "pk_1", TripID: "tr_1", PricePerPersonCents: 90000, Active: true}

	tests := []struct {
		name      string
		setupMock func(f fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "trip and package found",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gDto.And(gDto.Eq("id", "tr_1"), gDto.Eq("active", true))).Return(trip, nil)
				f.packageRepo.EXPECT().Get(gomock.Any(), gDto.And(
					gDto.Eq("id", "pk_1"), gDto.Eq("trip_id", "tr_1"), gDto.Eq("active", true),
				)).Return(pkg, nil)
			},
		},
		{
			name: "trip missing",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Trip{}, gRepo.ErrNotFound)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "package missing",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(trip, nil)
				f.packageRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Package{}, gRepo.ErrNotFound)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "database error",
			setupMock: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Trip{}, errors.New("connection reset"))
			},
			wantErr:  true,
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			gotTrip, gotPkg, err := f.svc.Resolve(context.Background(), "tr_1", "pk_1")
			if tt.wantErr {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, trip, gotTrip)
			assert.Equal(t, pkg, gotPkg)
		})
	}
}

func TestTripService_GetCachesResponse(t *testing.T) {
	f := newFixture(t)

	packages := []model.Package{{ID: "pk_1", Name: "Ocean View", Nights: 4, Occupancy: "double", PricePerPersonCents: 90000}}

	f.cache.EXPECT().Get(gomock.Any(), "trip:get:tr_1", gomock.Any()).Return(cache.Nil)
	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(trip, nil)
	f.packageRepo.EXPECT().GetAll(gomock.Any(), gDto.QueryParams{SortBy: "price_per_person_cents", SortDir: "ASC"}, gomock.Any()).Return(packages, nil)
	f.cache.EXPECT().Save(gomock.Any(), "trip:get:tr_1", gomock.Any(), 300*time.Second).Return(errors.New("redis down"))

	res, err := f.svc.Get(context.Background(), "tr_1")
	require.NoError(t, err)

	assert.Equal(t, "Jamaica", res.Name)
	require.Len(t, res.Packages, 1)
	assert.Equal(t, int64(90000), res.Packages[0].PricePerPersonCents)
}

func TestTripService_GetFromCache(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), "trip:get:tr_1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, value any) error {
			value.(*dto.TripResponse).Name = "cached"

			return nil
		})

	res, err := f.svc.Get(context.Background(), "tr_1")
	require.NoError(t, err)
	assert.Equal(t, "cached", res.Name)
}

func TestTripService_GetAll(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(21, nil)
	f.repo.EXPECT().GetAll(gomock.Any(), gDto.QueryParams{Page: 1, Limit: 20, SortBy: "created_at", SortDir: "DESC"}, gomock.Any()).
		Return([]model.Trip{trip}, nil)

	res, err := f.svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 20, SortBy: "password", SortDir: "ASC"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalPage)
	assert.Equal(t, 21, res.TotalData)
	assert.Len(t, res.Trips, 1)
}

func TestTripService_UpdatePaymentSettings(t *testing.T) {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin_1")

	tests := []struct {
		name      string
		req       dto.UpdatePaymentSettingsRequest
		setupMock func(f fixture)
		wantCode  int
	}{
		{
			name: "updates and evicts cache",
			req:  dto.UpdatePaymentSettingsRequest{PaymentPlanEnabled: shared.Ptr(false), DepositPerPersonCents: shared.Ptr[int64](30000)},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, false, fields["payment_plan_enabled"])
						assert.Equal(t, int64(30000), fields["deposit_per_person_cents"])
						assert.Equal(t, "admin_1", fields["modified_by"])

						return 1, nil
					})
				f.cache.EXPECT().Delete(gomock.Any(), "trip:get:tr_1").Return(nil)
			},
		},
		{
			name:      "empty request",
			req:       dto.UpdatePaymentSettingsRequest{},
			setupMock: func(fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "bad cutoff date",
			req:       dto.UpdatePaymentSettingsRequest{PlanCutoffDate: shared.Ptr("June 1st")},
			setupMock: func(fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "unknown trip",
			req:  dto.UpdatePaymentSettingsRequest{MaxInstallments: shared.Ptr(3)},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.UpdatePaymentSettings(ctx, "tr_1", tt.req)
			if tt.wantCode != 0 {
				assertCode(t, err, tt.wantCode)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestPlanAvailable(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.NoError(t, model.Trip{PaymentPlanEnabled: true}.PlanAvailable(now))
	assert.NoError(t, model.Trip{PaymentPlanEnabled: true, PlanCutoffDate: &future}.PlanAvailable(now))
	assertCode(t, model.Trip{PaymentPlanEnabled: true, PlanCutoffDate: &past}.PlanAvailable(now), http.StatusBadRequest)
	assertCode(t, model.Trip{}.PlanAvailable(now), http.StatusBadRequest)
}
