package services

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/repository"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/stretchr/testify/mock"
)

// MockLogger is a mock implementation of logger.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(args ...interface{})                 { m.Called(args...) }
func (m *MockLogger) Debugf(format string, args ...interface{}) { m.Called(format, args) }
func (m *MockLogger) Info(args ...interface{})                  { m.Called(args...) }
func (m *MockLogger) Infof(format string, args ...interface{})  { m.Called(format, args) }
func (m *MockLogger) Warn(args ...interface{})                  { m.Called(args...) }
func (m *MockLogger) Warnf(format string, args ...interface{})  { m.Called(format, args) }
func (m *MockLogger) Error(args ...interface{})                 { m.Called(args...) }
func (m *MockLogger) Errorf(format string, args ...interface{}) { m.Called(format, args) }
func (m *MockLogger) Fatal(args ...interface{})                 { m.Called(args...) }
func (m *MockLogger) Fatalf(format string, args ...interface{}) { m.Called(format, args) }

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	m.Called(fields)
	return m
}

// newMockLogger accepts any log call
func newMockLogger() *MockLogger {
	l := &MockLogger{}
	for _, method := range []string{"Debug", "Info", "Warn", "Error"} {
		l.On(method, mock.Anything).Return().Maybe()
		l.On(method+"f", mock.AnythingOfType("string"), mock.Anything).Return().Maybe()
	}
	l.On("WithFields", mock.Anything).Return().Maybe()
	return l
}

// MockRepository is a mock implementation of repository.EntityRepositoryInterface.
// Write methods echo their input when no entity is configured as return value.
type MockRepository[T models.Entity] struct {
	mock.Mock
	schema *repository.Schema
}

func newMockRepository[T models.Entity](entityType string) *MockRepository[T] {
	schemas, err := repository.LoadSchemas()
	if err != nil {
		panic(err)
	}
	return &MockRepository[T]{schema: schemas[entityType]}
}

func result[T any](args mock.Arguments, echo T) (T, error) {
	if v, ok := args.Get(0).(T); ok {
		return v, args.Error(1)
	}
	if args.Error(1) != nil {
		var zero T
		return zero, args.Error(1)
	}
	return echo, nil
}

func (m *MockRepository[T]) Schema() *repository.Schema { return m.schema }

func (m *MockRepository[T]) Create(ctx context.Context, entity T) (T, error) {
	return result(m.Called(ctx, entity), entity)
}

func (m *MockRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	return result(m.Called(ctx, id), zero)
}

func (m *MockRepository[T]) FindByName(ctx context.Context, name string) (T, error) {
	var zero T
	return result(m.Called(ctx, name), zero)
}

func (m *MockRepository[T]) FindContainingName(ctx context.Context, fragment string) ([]T, error) {
	args := m.Called(ctx, fragment)
	items, _ := args.Get(0).([]T)
	return items, args.Error(1)
}

func (m *MockRepository[T]) FindPagination(ctx context.Context, limit int, status, direction, cursorPointer string) (*models.Page[T], error) {
	args := m.Called(ctx, limit, status, direction, cursorPointer)
	page, _ := args.Get(0).(*models.Page[T])
	return page, args.Error(1)
}

func (m *MockRepository[T]) FindFilterPagination(ctx context.Context, filter models.Filter, limit int, direction, cursorPointer string) (*models.Page[T], error) {
	args := m.Called(ctx, filter, limit, direction, cursorPointer)
	page, _ := args.Get(0).(*models.Page[T])
	return page, args.Error(1)
}

func (m *MockRepository[T]) Update(ctx context.Context, entity T) (T, error) {
	return result(m.Called(ctx, entity), entity)
}

func (m *MockRepository[T]) SoftDelete(ctx context.Context, entity T) (T, error) {
	return result(m.Called(ctx, entity), entity)
}

func (m *MockRepository[T]) HardDelete(ctx context.Context, entity T) (T, error) {
	return result(m.Called(ctx, entity), entity)
}

// MockDatabaseClient is a mock implementation of dal.DatabaseClientInterface
type MockDatabaseClient struct {
	mock.Mock
}

func (m *MockDatabaseClient) GetItem(ctx context.Context, tableName string, key dal.Item, projection []string) (dal.Item, error) {
	args := m.Called(ctx, tableName, key, projection)
	item, _ := args.Get(0).(dal.Item)
	return item, args.Error(1)
}

func (m *MockDatabaseClient) PutItem(ctx context.Context, tableName string, item dal.Item, cond *dal.PutCondition) error {
	return m.Called(ctx, tableName, item, cond).Error(0)
}

func (m *MockDatabaseClient) DeleteItem(ctx context.Context, tableName string, key dal.Item) error {
	return m.Called(ctx, tableName, key).Error(0)
}

func (m *MockDatabaseClient) Query(ctx context.Context, input *dal.QueryInput) (*dal.QueryOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*dal.QueryOutput)
	return out, args.Error(1)
}

func (m *MockDatabaseClient) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockDatabaseClient) DescribeTable(ctx context.Context, tableName string) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, tableName)
	out, _ := args.Get(0).(*dynamodb.DescribeTableOutput)
	return out, args.Error(1)
}

func (m *MockDatabaseClient) DeleteTable(ctx context.Context, input *dynamodb.DeleteTableInput) error {
	return m.Called(ctx, input).Error(0)
}

// MockProvisioner is a mock implementation of Provisioner
type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Status() models.ProvisionStatus {
	return m.Called().Get(0).(models.ProvisionStatus)
}

func (m *MockProvisioner) Run(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
