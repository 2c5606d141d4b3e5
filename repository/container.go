package repository

import (
	"fmt"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils/logger"
)

// Container holds one repository per shipped entity type
type Container struct {
	User     *Repository[*models.User]
	Category *Repository[*models.Category]
	Product  *Repository[*models.Product]
}

// NewContainer loads the embedded schemas and builds every repository on db
func NewContainer(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) (*Container, error) {
	schemas, err := LoadSchemas()
	if err != nil {
		return nil, err
	}
	lookup := func(entityType string) (*Schema, error) {
		s, ok := schemas[entityType]
		if !ok {
			return nil, fmt.Errorf("no schema for entity %s", entityType)
		}
		return s, nil
	}

	cursors := NewCursorCodec(cfg.CursorSecret, cfg.CursorTTL, log)
	c := &Container{}

	s, err := lookup("USER")
	if err != nil {
		return nil, err
	}
	c.User = NewRepository(db, s, cursors, cfg, log, func() *models.User { return &models.User{} })

	if s, err = lookup("CATEGORY"); err != nil {
		return nil, err
	}
	c.Category = NewRepository(db, s, cursors, cfg, log, func() *models.Category { return &models.Category{} })

	if s, err = lookup("PRODUCT"); err != nil {
		return nil, err
	}
	c.Product = NewRepository(db, s, cursors, cfg, log, func() *models.Product { return &models.Product{} })

	return c, nil
}

func (c *Container) GetUserRepository() EntityRepositoryInterface[*models.User] {
	return c.User
}

func (c *Container) GetCategoryRepository() EntityRepositoryInterface[*models.Category] {
	return c.Category
}

func (c *Container) GetProductRepository() EntityRepositoryInterface[*models.Product] {
	return c.Product
}
