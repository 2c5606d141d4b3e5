package models

// Category groups products in the catalog
type Category struct {
	Base
	Name        string `json:"name" dynamodbav:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" dynamodbav:"description" validate:"max=1000"`
}

func (c *Category) GetName() string { return c.Name }
