package utils

import (
	"os"
	"testing"
	"time"

	"github.com/demariano/php-suite-sub002/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// UtilsTestSuite defines a test suite for utils functions
type UtilsTestSuite struct {
	suite.Suite
	originalEnv map[string]string
}

var configEnvVars = []string{
	"APP_NAME", "APP_VERSION", "APP_ENV", "APP_HOST", "APP_PORT",
	"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"DYNAMODB_ENDPOINT", "DYNAMODB_TABLE_PREFIX", "DYNAMODB_TABLE_NAME",
	"STORE_BACKEND", "BADGER_PATH", "BADGER_IN_MEMORY",
	"PAGINATION_MIN_LIMIT", "PAGINATION_MAX_LIMIT", "PAGINATION_DEFAULT_LIMIT", "QUERY_BATCH_SIZE",
	"CURSOR_SECRET", "CURSOR_TTL",
	"LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS",
	"WORKER_CRON_SCHEDULE", "WORKER_RUN_ONCE", "METRICS_ENABLED",
}

func (suite *UtilsTestSuite) SetupTest() {
	suite.originalEnv = make(map[string]string)
	for _, envVar := range configEnvVars {
		suite.originalEnv[envVar] = os.Getenv(envVar)
		os.Unsetenv(envVar)
	}
}

func (suite *UtilsTestSuite) TearDownTest() {
	for envVar, value := range suite.originalEnv {
		if value != "" {
			os.Setenv(envVar, value)
		} else {
			os.Unsetenv(envVar)
		}
	}
}

func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestGetConfigDefaults() {
	config, err := GetConfig()
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Catalog Data Service", config.AppName)
	assert.Equal(suite.T(), "development", config.AppEnv)
	assert.Equal(suite.T(), "8081", config.AppPort)
	assert.Equal(suite.T(), "dynamodb", config.StoreBackend)
	assert.Equal(suite.T(), 1, config.PaginationMinLimit)
	assert.Equal(suite.T(), 100, config.PaginationMaxLimit)
	assert.Equal(suite.T(), 10, config.PaginationDefaultLimit)
	assert.Equal(suite.T(), 24*time.Hour, config.CursorTTL)
	assert.Equal(suite.T(), "dev_catalog", config.TableName())
	assert.Equal(suite.T(), "/api/v1", config.BasePath)
}

func (suite *UtilsTestSuite) TestGetConfigWithEnvironmentVariables() {
	os.Setenv("APP_NAME", "Test App")
	os.Setenv("STORE_BACKEND", "badger")
	os.Setenv("DYNAMODB_TABLE_PREFIX", "qa")
	os.Setenv("PAGINATION_MAX_LIMIT", "50")
	os.Setenv("CURSOR_TTL", "90m")

	config, err := GetConfig()
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Test App", config.AppName)
	assert.Equal(suite.T(), "badger", config.StoreBackend)
	assert.Equal(suite.T(), "qa_catalog", config.TableName())
	assert.Equal(suite.T(), 50, config.PaginationMaxLimit)
	assert.Equal(suite.T(), 90*time.Minute, config.CursorTTL)
}

func (suite *UtilsTestSuite) TestProductionRequiresCursorSecret() {
	os.Setenv("APP_ENV", "production")

	config, err := GetConfig()
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), config)
	assert.Contains(suite.T(), err.Error(), "CURSOR_SECRET")
}

func (suite *UtilsTestSuite) TestValidate() {
	base := func() *models.Config {
		return &models.Config{
			AppEnv:                 "development",
			StoreBackend:           "dynamodb",
			DynamoDBTableName:      "catalog",
			PaginationMinLimit:     1,
			PaginationMaxLimit:     100,
			PaginationDefaultLimit: 10,
			QueryBatchSize:         100,
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *models.Config)
		wantErr string
	}{
		{"valid", func(c *models.Config) {}, ""},
		{"unknown backend", func(c *models.Config) { c.StoreBackend = "redis" }, "unknown store backend"},
		{"missing table", func(c *models.Config) { c.DynamoDBTableName = "" }, "table name"},
		{"zero min", func(c *models.Config) { c.PaginationMinLimit = 0 }, "min limit"},
		{"max below min", func(c *models.Config) { c.PaginationMaxLimit = 0 }, "below min"},
		{"default outside", func(c *models.Config) { c.PaginationDefaultLimit = 500 }, "default limit"},
		{"batch size", func(c *models.Config) { c.QueryBatchSize = 0 }, "batch size"},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			c := base()
			tc.mutate(c)
			err := validate(c)
			if tc.wantErr == "" {
				assert.NoError(suite.T(), err)
			} else {
				require.Error(suite.T(), err)
				assert.Contains(suite.T(), err.Error(), tc.wantErr)
			}
		})
	}
}

func (suite *UtilsTestSuite) TestGenerateUUID() {
	id := GenerateUUID()
	_, err := uuid.Parse(id)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), id, GenerateUUID())
}

func (suite *UtilsTestSuite) TestPrintPrettyJSON() {
	out := PrintPrettyJSON(map[string]string{"key": "value"})
	assert.Contains(suite.T(), out, "\"key\": \"value\"")

	assert.Equal(suite.T(), "", PrintPrettyJSON(make(chan int)))
}
