package repository

import (
	"context"

	"github.com/demariano/php-suite-sub002/models"
)

// EntityRepositoryInterface defines the contract of the access layer for one entity type
type EntityRepositoryInterface[T models.Entity] interface {
	Schema() *Schema
	Create(ctx context.Context, entity T) (T, error)
	FindByID(ctx context.Context, id string) (T, error)
	FindByName(ctx context.Context, name string) (T, error)
	FindContainingName(ctx context.Context, fragment string) ([]T, error)
	FindPagination(ctx context.Context, limit int, status, direction, cursorPointer string) (*models.Page[T], error)
	FindFilterPagination(ctx context.Context, filter models.Filter, limit int, direction, cursorPointer string) (*models.Page[T], error)
	Update(ctx context.Context, entity T) (T, error)
	SoftDelete(ctx context.Context, entity T) (T, error)
	HardDelete(ctx context.Context, entity T) (T, error)
}

// RepositoryContainerInterface defines the contract for the repository container
type RepositoryContainerInterface interface {
	GetUserRepository() EntityRepositoryInterface[*models.User]
	GetCategoryRepository() EntityRepositoryInterface[*models.Category]
	GetProductRepository() EntityRepositoryInterface[*models.Product]
}

var _ EntityRepositoryInterface[*models.User] = (*Repository[*models.User])(nil)
