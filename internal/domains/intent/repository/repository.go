package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"retreat/infras/otel"
	"retreat/infras/postgres"
	"retreat/internal/domains/intent/model"
	gDto "retreat/shared/dto"
	gRepo "retreat/shared/repository"

	"github.com/jmoiron/sqlx"
)

type Intent interface {
	Insert(ctx context.Context, model model.Intent) error
	Get(ctx context.Context, filter gDto.FilterGroup) (model.Intent, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.Intent, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup) (model.Intent, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) (int64, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Intent]
}

func New(db *postgres.Connection, otel otel.Otel) Intent {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Intent](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
