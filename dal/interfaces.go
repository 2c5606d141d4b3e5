package dal

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a raw stored record
type Item = map[string]types.AttributeValue

// PutCondition guards a write on the presence of an attribute of the stored item
type PutCondition struct {
	Attribute string
	Exists    bool
}

// MustExist only lets the write through if the item already exists
func MustExist(attribute string) *PutCondition {
	return &PutCondition{Attribute: attribute, Exists: true}
}

// MustNotExist only lets the write through if no item exists under the key
func MustNotExist(attribute string) *PutCondition {
	return &PutCondition{Attribute: attribute, Exists: false}
}

// DatabaseClientInterface defines the contract for database operations
type DatabaseClientInterface interface {
	// Single item operations
	GetItem(ctx context.Context, tableName string, key Item, projection []string) (Item, error)
	PutItem(ctx context.Context, tableName string, item Item, cond *PutCondition) error
	DeleteItem(ctx context.Context, tableName string, key Item) error

	// Query runs a key-condition query against the table or one of its indexes
	Query(ctx context.Context, input *QueryInput) (*QueryOutput, error)

	// Table management operations
	CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error
	DescribeTable(ctx context.Context, tableName string) (*dynamodb.DescribeTableOutput, error)
	DeleteTable(ctx context.Context, input *dynamodb.DeleteTableInput) error
}
