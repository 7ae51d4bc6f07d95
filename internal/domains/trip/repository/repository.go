package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"retreat/infras/otel"
	"retreat/infras/postgres"
	"retreat/internal/domains/trip/model"
	gDto "retreat/shared/dto"
	gRepo "retreat/shared/repository"
)

type Trip interface {
	Get(ctx context.Context, filter gDto.FilterGroup) (model.Trip, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.Trip, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
}

type Package interface {
	Get(ctx context.Context, filter gDto.FilterGroup) (model.Package, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.Package, error)
}

type tripRepositoryImpl struct {
	gRepo.Repository[model.Trip]
}

type packageRepositoryImpl struct {
	gRepo.Repository[model.Package]
}

func New(db *postgres.Connection, otel otel.Otel) Trip {
	return &tripRepositoryImpl{
		Repository: gRepo.NewRepository[model.Trip](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

func NewPackage(db *postgres.Connection, otel otel.Otel) Package {
	return &packageRepositoryImpl{
		Repository: gRepo.NewRepository[model.Package](model.PackageEntity, model.PackageTableName, model.FieldID, db, otel),
	}
}
