package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/infrastructure"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils/logger"
)

// TableProvisioner creates the application table from its embedded definition
type TableProvisioner struct {
	db           dal.DatabaseClientInterface
	logger       logger.Logger
	tableName    string
	maxRetries   int
	retryDelay   time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration
}

func NewTableProvisioner(db dal.DatabaseClientInterface, log logger.Logger, cfg *models.WorkerConfig) *TableProvisioner {
	return &TableProvisioner{
		db:           db,
		logger:       log,
		tableName:    cfg.TableName,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		waitTimeout:  cfg.WaitTimeout,
		pollInterval: cfg.PollInterval,
	}
}

// Ensure makes sure the table exists and is ACTIVE
func (p *TableProvisioner) Ensure(ctx context.Context, status *StatusTracker) error {
	exists, tableStatus, err := p.describe(ctx)
	if err != nil {
		return err
	}
	if !exists {
		status.update(models.StatusCreatingTable, "")
		if err := p.createTableWithRetry(ctx); err != nil {
			return err
		}
		status.markCreated()
	} else if tableStatus == string(types.TableStatusActive) {
		status.update(models.StatusCompleted, tableStatus)
		return p.validate(ctx)
	}

	status.update(models.StatusWaitingForTable, tableStatus)
	if err := p.waitForActive(ctx); err != nil {
		return err
	}
	status.update(models.StatusCompleted, string(types.TableStatusActive))
	return p.validate(ctx)
}

// createTableWithRetry creates the table, retrying with a linear backoff
func (p *TableProvisioner) createTableWithRetry(ctx context.Context) error {
	input, err := infrastructure.GetTable(infrastructure.SchemaKey, p.tableName)
	if err != nil {
		return fmt.Errorf("failed to get table input: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * p.retryDelay
			p.logger.Infof("Retrying table creation for %s in %v (attempt %d/%d)", p.tableName, delay, attempt+1, p.maxRetries+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = p.db.CreateTable(ctx, input)
		if lastErr == nil || dal.IsResourceInUse(lastErr) {
			p.logger.Infof("Table %s created", p.tableName)
			return nil
		}
		p.logger.Errorf("Attempt %d failed to create table %s: %v", attempt+1, p.tableName, lastErr)
	}
	return fmt.Errorf("failed to create table %s after %d attempts: %w", p.tableName, p.maxRetries+1, lastErr)
}

func (p *TableProvisioner) describe(ctx context.Context) (bool, string, error) {
	out, err := p.db.DescribeTable(ctx, p.tableName)
	if err != nil {
		if dal.IsTableNotFound(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to describe table %s: %w", p.tableName, err)
	}
	if out == nil || out.Table == nil {
		return true, "", nil
	}
	return true, string(out.Table.TableStatus), nil
}

// waitForActive polls until the table reports ACTIVE or the wait times out
func (p *TableProvisioner) waitForActive(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		exists, status, err := p.describe(timeoutCtx)
		if err != nil {
			p.logger.Errorf("Failed to check table %s: %v", p.tableName, err)
		} else if exists && status == string(types.TableStatusActive) {
			return nil
		}

		select {
		case <-timeoutCtx.Done():
			return fmt.Errorf("timeout waiting for table %s to become active", p.tableName)
		case <-ticker.C:
		}
	}
}

// validate checks that every declared index exists on the table
func (p *TableProvisioner) validate(ctx context.Context) error {
	desc, err := p.db.DescribeTable(ctx, p.tableName)
	if err != nil {
		return fmt.Errorf("table %s validation failed: %w", p.tableName, err)
	}

	have := map[string]bool{}
	for _, gsi := range desc.Table.GlobalSecondaryIndexes {
		if gsi.IndexName != nil {
			have[*gsi.IndexName] = true
		}
	}
	for _, name := range infrastructure.IndexNames(infrastructure.SchemaKey) {
		if !have[name] {
			return fmt.Errorf("table %s is missing index %s", p.tableName, name)
		}
	}

	p.logger.Debugf("Table %s validation passed", p.tableName)
	return nil
}
