package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"retreat/infras/otel"
	"retreat/infras/postgres"
	"retreat/internal/domains/booking/model"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	gRepo "retreat/shared/repository"
	"retreat/shared/timezone"

	"github.com/jmoiron/sqlx"
)

var ErrMissingEventID = errors.New("provider event id is required")

const claimEventQuery = `INSERT INTO ` + model.EventTableName + ` (provider, event_id, processed_at)
VALUES (:provider, :event_id, :processed_at) ON CONFLICT (provider, event_id) DO NOTHING`

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.Booking, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup) (model.Booking, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) (int64, error)
	// ClaimEventTx records a provider event id and reports false when it was already recorded.
	ClaimEventTx(ctx context.Context, tx *sqlx.Tx, provider, eventID string) (bool, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		otel:       otel,
	}
}

func (r *repositoryImpl) ClaimEventTx(ctx context.Context, tx *sqlx.Tx, provider, eventID string) (claimed bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.ClaimEventTx")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if eventID == "" {
		return false, ErrMissingEventID
	}

	scope.SetAttribute(constant.OtelQueryAttributeKey, claimEventQuery)

	result, err := tx.NamedExecContext(ctx, claimEventQuery, map[string]any{
		"provider":     provider,
		"event_id":     eventID,
		"processed_at": timezone.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to claim provider event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claimed rows: %w", err)
	}

	return affected == 1, nil
}
