package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"retreat/infras/otel"
	"retreat/infras/postgres"
	"retreat/internal/domains/webhook/model"
	gDto "retreat/shared/dto"
	gRepo "retreat/shared/repository"
)

// Webhook stores audit rows. Rows are never deleted.
type Webhook interface {
	Insert(ctx context.Context, model model.WebhookEvent) error
	Get(ctx context.Context, filter gDto.FilterGroup) (model.WebhookEvent, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.WebhookEvent, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.WebhookEvent]
}

func New(db *postgres.Connection, otel otel.Otel) Webhook {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.WebhookEvent](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
