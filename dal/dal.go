package dal

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils/logger"
)

// dynamoAPI is the subset of the SDK client used here
type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
}

type DynamoDBClient struct {
	client dynamoAPI
	logger logger.Logger
}

// NewDatabaseClient builds the store client selected by cfg.StoreBackend
func NewDatabaseClient(cfg *models.Config, log logger.Logger) (DatabaseClientInterface, error) {
	switch cfg.StoreBackend {
	case "badger":
		client, err := NewBadgerClient(BadgerOptions{
			Path:     cfg.BadgerPath,
			InMemory: cfg.BadgerInMemory,
		}, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "dynamodb", "":
		client, err := NewDynamoDBClient(cfg, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewDynamoDBClient creates a new DynamoDB client
func NewDynamoDBClient(cfg *models.Config, log logger.Logger) (*DynamoDBClient, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Use static credentials if provided
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		))
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		// Local DynamoDB
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})

	log.Info("DynamoDB client initialized successfully")
	return newDynamoDBClient(client, log), nil
}

func newDynamoDBClient(api dynamoAPI, log logger.Logger) *DynamoDBClient {
	return &DynamoDBClient{client: api, logger: log}
}

// GetItem retrieves an item by its full primary key; a missing item yields nil, nil
func (db *DynamoDBClient) GetItem(ctx context.Context, tableName string, key Item, projection []string) (Item, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	}

	if proj, ok := buildProjection(projection); ok {
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build projection: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	output, err := db.client.GetItem(ctx, input)
	if err != nil {
		db.logger.Debugf("GetItem on %s failed: %v", tableName, err)
		return nil, wrapStoreError("get", err)
	}

	if len(output.Item) == 0 {
		return nil, nil
	}
	return output.Item, nil
}

// PutItem writes the whole item, replacing any previous version
func (db *DynamoDBClient) PutItem(ctx context.Context, tableName string, item Item, cond *PutCondition) error {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	}

	if cond != nil {
		expr, err := buildPutCondition(cond)
		if err != nil {
			return fmt.Errorf("failed to build put condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := db.client.PutItem(ctx, input); err != nil {
		db.logger.Debugf("PutItem on %s failed: %v", tableName, err)
		return wrapStoreError("put", err)
	}
	return nil
}

// DeleteItem deletes an item from DynamoDB
func (db *DynamoDBClient) DeleteItem(ctx context.Context, tableName string, key Item) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	}

	if _, err := db.client.DeleteItem(ctx, input); err != nil {
		db.logger.Debugf("DeleteItem on %s failed: %v", tableName, err)
		return wrapStoreError("delete", err)
	}
	return nil
}

// Query runs one page of a key-condition query
func (db *DynamoDBClient) Query(ctx context.Context, in *QueryInput) (*QueryOutput, error) {
	expr, err := buildQueryExpression(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(in.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(in.Forward),
	}
	if in.IndexName != "" {
		input.IndexName = aws.String(in.IndexName)
	}
	if in.Limit > 0 {
		input.Limit = aws.Int32(in.Limit)
	}
	if len(in.ExclusiveStartKey) > 0 {
		input.ExclusiveStartKey = in.ExclusiveStartKey
	}

	output, err := db.client.Query(ctx, input)
	if err != nil {
		db.logger.Debugf("Query on %s/%s failed: %v", in.TableName, in.IndexName, err)
		return nil, wrapStoreError("query", err)
	}

	return &QueryOutput{
		Items:            output.Items,
		LastEvaluatedKey: output.LastEvaluatedKey,
		Count:            output.Count,
		ScannedCount:     output.ScannedCount,
	}, nil
}

// CreateTable creates a table
func (db *DynamoDBClient) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	_, err := db.client.CreateTable(ctx, input)
	return err
}

// DescribeTable describes a table
func (db *DynamoDBClient) DescribeTable(ctx context.Context, tableName string) (*dynamodb.DescribeTableOutput, error) {
	input := &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}
	return db.client.DescribeTable(ctx, input)
}

// DeleteTable deletes a table
func (db *DynamoDBClient) DeleteTable(ctx context.Context, input *dynamodb.DeleteTableInput) error {
	_, err := db.client.DeleteTable(ctx, input)
	return err
}
