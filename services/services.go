package services

import (
	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/repository"
	"github.com/demariano/php-suite-sub002/utils/logger"
)

// Service implements ServiceContainerInterface
type Service struct {
	userService           EntityServiceInterface[*models.User]
	categoryService       EntityServiceInterface[*models.Category]
	productService        EntityServiceInterface[*models.Product]
	infrastructureService InfrastructureServiceInterface
}

// NewService creates a new service container with all dependencies injected
func NewService(
	repoContainer repository.RepositoryContainerInterface,
	db dal.DatabaseClientInterface,
	provisioner Provisioner,
	logger logger.Logger,
	config *models.Config,
) *Service {
	return &Service{
		userService:           NewEntityService(repoContainer.GetUserRepository(), func() *models.User { return &models.User{} }, logger),
		categoryService:       NewEntityService(repoContainer.GetCategoryRepository(), func() *models.Category { return &models.Category{} }, logger),
		productService:        NewEntityService(repoContainer.GetProductRepository(), func() *models.Product { return &models.Product{} }, logger),
		infrastructureService: NewInfrastructureService(db, provisioner, logger, config),
	}
}

// GetUserService returns the user service interface
func (s *Service) GetUserService() EntityServiceInterface[*models.User] {
	return s.userService
}

// GetCategoryService returns the category service interface
func (s *Service) GetCategoryService() EntityServiceInterface[*models.Category] {
	return s.categoryService
}

// GetProductService returns the product service interface
func (s *Service) GetProductService() EntityServiceInterface[*models.Product] {
	return s.productService
}

// GetInfrastructureService returns the infrastructure service interface
func (s *Service) GetInfrastructureService() InfrastructureServiceInterface {
	return s.infrastructureService
}
