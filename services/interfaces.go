package services

import (
	"context"

	"github.com/demariano/php-suite-sub002/models"
)

// EntityServiceInterface defines the contract for the service of one entity type
type EntityServiceInterface[T models.Entity] interface {
	Create(ctx context.Context, entity T, actor string) (T, error)
	Get(ctx context.Context, id string) (T, error)
	GetByName(ctx context.Context, name string) (T, error)
	Search(ctx context.Context, fragment string) ([]T, error)
	List(ctx context.Context, req models.PageRequest, status string) (*models.Page[T], error)
	Filter(ctx context.Context, req models.FilterPageRequest) (*models.Page[T], error)
	Update(ctx context.Context, id string, patch map[string]interface{}, actor string) (T, error)
	Delete(ctx context.Context, id string, hard bool, actor string) (T, error)
}

// InfrastructureServiceInterface defines the contract for infrastructure service
type InfrastructureServiceInterface interface {
	Health(ctx context.Context) (*models.HealthStatus, error)
	IsHealthy(ctx context.Context) (bool, string)
	Provision(ctx context.Context) (*models.ProvisionResult, error)
}

// ServiceContainerInterface defines the main service container contract
type ServiceContainerInterface interface {
	GetUserService() EntityServiceInterface[*models.User]
	GetCategoryService() EntityServiceInterface[*models.Category]
	GetProductService() EntityServiceInterface[*models.Product]
	GetInfrastructureService() InfrastructureServiceInterface
}

var (
	_ EntityServiceInterface[*models.User] = (*EntityService[*models.User])(nil)
	_ InfrastructureServiceInterface       = (*InfrastructureService)(nil)
	_ ServiceContainerInterface            = (*Service)(nil)
)
