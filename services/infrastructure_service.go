package services

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils/logger"
)

// Provisioner is the part of the provisioning worker the service reports on
type Provisioner interface {
	Status() models.ProvisionStatus
	Run(ctx context.Context) error
}

type InfrastructureService struct {
	db          dal.DatabaseClientInterface
	provisioner Provisioner
	logger      logger.Logger
	config      *models.Config
	now         func() time.Time
}

func NewInfrastructureService(db dal.DatabaseClientInterface, provisioner Provisioner, logger logger.Logger, config *models.Config) *InfrastructureService {
	return &InfrastructureService{
		db:          db,
		provisioner: provisioner,
		logger:      logger,
		config:      config,
		now:         time.Now,
	}
}

// Health describes the application table together with the last provisioning run.
// The returned status is filled in even when the table cannot be described.
func (s *InfrastructureService) Health(ctx context.Context) (*models.HealthStatus, error) {
	health := &models.HealthStatus{
		Service:     s.config.AppName,
		Version:     s.config.AppVersion,
		Backend:     s.config.StoreBackend,
		TableName:   s.config.TableName(),
		TableStatus: "UNAVAILABLE",
	}
	if s.provisioner != nil {
		status := s.provisioner.Status()
		health.Provision = &status
	}

	out, err := s.db.DescribeTable(ctx, health.TableName)
	if err != nil {
		s.logger.Warnf("Failed to describe table %s: %v", health.TableName, err)
		return health, err
	}
	if out.Table != nil {
		health.TableStatus = string(out.Table.TableStatus)
		for _, gsi := range out.Table.GlobalSecondaryIndexes {
			health.Indexes = append(health.Indexes, aws.ToString(gsi.IndexName))
		}
	}
	return health, nil
}

// IsHealthy reports whether the table is ACTIVE
func (s *InfrastructureService) IsHealthy(ctx context.Context) (bool, string) {
	health, err := s.Health(ctx)
	if err != nil {
		return false, err.Error()
	}
	if health.TableStatus != "ACTIVE" {
		return false, "table status is " + health.TableStatus
	}
	return true, "table is active"
}

// Provision runs one provisioning pass immediately
func (s *InfrastructureService) Provision(ctx context.Context) (*models.ProvisionResult, error) {
	if s.provisioner == nil {
		return nil, models.NewValidationError("", "provisioning is not enabled")
	}

	s.logger.Info("Running table provisioning on request")
	result := &models.ProvisionResult{StartTime: s.now()}
	err := s.provisioner.Run(ctx)
	result.EndTime = s.now()
	result.Provision = s.provisioner.Status()
	if err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		return result, err
	}
	result.Status = "completed"
	return result, nil
}
