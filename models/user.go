package models

// User is a platform user; the email is its unique name
type User struct {
	Base
	Email     string `json:"email" dynamodbav:"email" validate:"required,email,max=254"`
	FirstName string `json:"firstName" dynamodbav:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" dynamodbav:"lastName" validate:"max=100"`
	Role      string `json:"role" dynamodbav:"role" validate:"required"`
}

func (u *User) GetName() string { return u.Email }
