package models

// Product is a catalog item belonging to a category
type Product struct {
	Base
	Name        string  `json:"name" dynamodbav:"name" validate:"required,min=1,max=120"`
	CategoryID  string  `json:"categoryId" dynamodbav:"categoryId" validate:"max=64"`
	Description string  `json:"description" dynamodbav:"description" validate:"max=2000"`
	Price       float64 `json:"price" dynamodbav:"price" validate:"gte=0"`
	Currency    string  `json:"currency" dynamodbav:"currency" validate:"omitempty,len=3"`
}

func (p *Product) GetName() string { return p.Name }
