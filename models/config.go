package models

import "time"

// Config holds all configuration for the application
type Config struct {
	// Application
	AppName    string `mapstructure:"app_name"`
	AppVersion string `mapstructure:"app_version"`
	AppEnv     string `mapstructure:"app_env"`
	AppHost    string `mapstructure:"app_host"`
	AppPort    string `mapstructure:"app_port"`

	// AWS
	AWSRegion           string `mapstructure:"aws_region"`
	AWSAccessKeyID      string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey  string `mapstructure:"aws_secret_access_key"`
	DynamoDBEndpoint    string `mapstructure:"dynamodb_endpoint"`
	DynamoDBTablePrefix string `mapstructure:"dynamodb_table_prefix"`
	DynamoDBTableName   string `mapstructure:"dynamodb_table_name"`

	// Store backend: "dynamodb" or "badger"
	StoreBackend   string `mapstructure:"store_backend"`
	BadgerPath     string `mapstructure:"badger_path"`
	BadgerInMemory bool   `mapstructure:"badger_in_memory"`

	// Pagination
	PaginationMinLimit     int `mapstructure:"pagination_min_limit"`
	PaginationMaxLimit     int `mapstructure:"pagination_max_limit"`
	PaginationDefaultLimit int `mapstructure:"pagination_default_limit"`
	QueryBatchSize         int `mapstructure:"query_batch_size"`

	// Cursor signing
	CursorSecret string        `mapstructure:"cursor_secret"`
	CursorTTL    time.Duration `mapstructure:"cursor_ttl"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// CORS
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Worker
	WorkerCronSchedule string `mapstructure:"worker_cron_schedule"`
	WorkerRunOnce      bool   `mapstructure:"worker_run_once"`

	// Metrics
	MetricsEnabled bool `mapstructure:"metrics_enabled"`

	// Base Path
	BasePath string `mapstructure:"basePath"`
}

// TableName returns the physical name of the single application table
func (c *Config) TableName() string {
	if c.DynamoDBTablePrefix == "" {
		return c.DynamoDBTableName
	}
	return c.DynamoDBTablePrefix + "_" + c.DynamoDBTableName
}
