package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/demariano/php-suite-sub002/models"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const defaultCursorSecret = "change-this-cursor-signing-secret"

// GetConfig read the configuration from environment variables or config files
func GetConfig() (*models.Config, error) {
	config, err := Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return config, nil
}

// Load initializes and returns the application configuration using Viper
func Load() (*models.Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../")
	v.AddConfigPath("../../")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Config file not found (%v), using defaults and environment variables\n", err)
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	flattenNestedConfig(v)

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if ttl := v.GetString("cursor_ttl"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor ttl format: %w", err)
		}
		config.CursorTTL = d
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("app_name", "Catalog Data Service")
	v.SetDefault("app_version", "1.0.0")
	v.SetDefault("app_env", "development")
	v.SetDefault("app_host", "0.0.0.0")
	v.SetDefault("app_port", "8081")

	// AWS defaults
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")
	v.SetDefault("dynamodb_endpoint", "")
	v.SetDefault("dynamodb_table_prefix", "dev")
	v.SetDefault("dynamodb_table_name", "catalog")

	// Store defaults
	v.SetDefault("store_backend", "dynamodb")
	v.SetDefault("badger_path", "")
	v.SetDefault("badger_in_memory", true)

	// Pagination defaults
	v.SetDefault("pagination_min_limit", 1)
	v.SetDefault("pagination_max_limit", 100)
	v.SetDefault("pagination_default_limit", 10)
	v.SetDefault("query_batch_size", 100)

	// Cursor defaults
	v.SetDefault("cursor_secret", defaultCursorSecret)
	v.SetDefault("cursor_ttl", "24h")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// CORS defaults
	v.SetDefault("cors_origins", []string{"*"})

	// Worker defaults
	v.SetDefault("worker_cron_schedule", "")
	v.SetDefault("worker_run_once", false)

	v.SetDefault("metrics_enabled", true)

	v.SetDefault("basePath", "/api/v1")
}

// validate checks if all required configuration is provided
func validate(c *models.Config) error {
	if c.CursorSecret == defaultCursorSecret && c.AppEnv == "production" {
		return fmt.Errorf("CURSOR_SECRET must be set in production environment")
	}

	switch c.StoreBackend {
	case "dynamodb", "badger":
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.DynamoDBTableName == "" {
		return fmt.Errorf("dynamodb table name is required")
	}

	if c.PaginationMinLimit < 1 {
		return fmt.Errorf("pagination min limit must be at least 1")
	}
	if c.PaginationMaxLimit < c.PaginationMinLimit {
		return fmt.Errorf("pagination max limit %d is below min limit %d", c.PaginationMaxLimit, c.PaginationMinLimit)
	}
	if c.PaginationDefaultLimit < c.PaginationMinLimit || c.PaginationDefaultLimit > c.PaginationMaxLimit {
		return fmt.Errorf("pagination default limit %d is outside [%d, %d]", c.PaginationDefaultLimit, c.PaginationMinLimit, c.PaginationMaxLimit)
	}
	if c.QueryBatchSize < 1 {
		return fmt.Errorf("query batch size must be positive")
	}

	if c.AppEnv == "production" && c.AWSAccessKeyID == "" {
		fmt.Println("No AWS credentials provided, assuming IAM role is used")
	}

	return nil
}

// nestedKeys maps nested config.json paths to their flat keys
var nestedKeys = map[string]string{
	"app.name":                  "app_name",
	"app.version":               "app_version",
	"app.env":                   "app_env",
	"app.host":                  "app_host",
	"app.port":                  "app_port",
	"aws.region":                "aws_region",
	"aws.access_key_id":         "aws_access_key_id",
	"aws.secret_access_key":     "aws_secret_access_key",
	"aws.dynamodb_endpoint":     "dynamodb_endpoint",
	"aws.dynamodb_table_prefix": "dynamodb_table_prefix",
	"aws.dynamodb_table_name":   "dynamodb_table_name",
	"store.backend":             "store_backend",
	"store.badger_path":         "badger_path",
	"store.badger_in_memory":    "badger_in_memory",
	"pagination.min_limit":      "pagination_min_limit",
	"pagination.max_limit":      "pagination_max_limit",
	"pagination.default_limit":  "pagination_default_limit",
	"pagination.batch_size":     "query_batch_size",
	"cursor.secret":             "cursor_secret",
	"cursor.ttl":                "cursor_ttl",
	"logging.level":             "log_level",
	"logging.format":            "log_format",
	"worker.cron_schedule":      "worker_cron_schedule",
	"worker.run_once":           "worker_run_once",
	"metrics.enabled":           "metrics_enabled",
}

// flattenNestedConfig flattens the nested JSON structure to flat keys for easier mapping
func flattenNestedConfig(v *viper.Viper) {
	for nested, flat := range nestedKeys {
		if v.IsSet(nested) {
			v.Set(flat, v.Get(nested))
		}
	}

	if v.IsSet("cors.origins") {
		v.Set("cors_origins", v.GetStringSlice("cors.origins"))
	}
}

// PrintPrettyJSON takes any struct or map and prints it as pretty JSON
func PrintPrettyJSON(data interface{}) string {
	prettyJSON, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		fmt.Println("Failed to generate JSON:", err)
		return ""
	}
	return string(prettyJSON)
}

// GenerateUUID returns a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}
