package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/robfig/cron"
)

// Worker provisions the application table at start-up and re-checks it on a schedule
type Worker struct {
	config      *models.WorkerConfig
	logger      logger.Logger
	cronJob     *cron.Cron
	provisioner *TableProvisioner
	status      *StatusTracker

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewWorker builds a worker for the table named by cfg
func NewWorker(cfg *models.Config, db dal.DatabaseClientInterface, log logger.Logger) (*Worker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database client cannot be nil")
	}

	schedule := cfg.WorkerCronSchedule
	if schedule == "" {
		schedule = getCronScheduleForEnvironment(cfg.AppEnv)
	}

	workerConfig := &models.WorkerConfig{
		CronSchedule: schedule,
		Environment:  cfg.AppEnv,
		TableName:    cfg.TableName(),
		MaxRetries:   3,
		RetryDelay:   5 * time.Second,
		WaitTimeout:  5 * time.Minute,
		PollInterval: 5 * time.Second,
		RunOnce:      cfg.WorkerRunOnce,
	}
	return newWorker(workerConfig, db, log)
}

func newWorker(workerConfig *models.WorkerConfig, db dal.DatabaseClientInterface, log logger.Logger) (*Worker, error) {
	if err := validateWorkerConfig(workerConfig); err != nil {
		return nil, fmt.Errorf("invalid worker configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		config:      workerConfig,
		logger:      log,
		cronJob:     cron.New(),
		provisioner: NewTableProvisioner(db, log, workerConfig),
		status:      NewStatusTracker(workerConfig.TableName),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start provisions the table once. Unless the worker runs once, it then
// schedules the periodic health check.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("worker is already running")
	}
	select {
	case <-w.ctx.Done():
		return fmt.Errorf("worker context is cancelled, cannot start")
	default:
	}

	w.logger.Infof("Starting provisioning worker for table %s (schedule: %s, run once: %v)",
		w.config.TableName, w.config.CronSchedule, w.config.RunOnce)

	if err := w.Run(w.ctx); err != nil {
		if w.config.RunOnce {
			return err
		}
		w.logger.Errorf("Initial table provisioning failed, the health check will retry: %v", err)
	}
	if w.config.RunOnce {
		return nil
	}

	if err := w.cronJob.AddFunc(w.config.CronSchedule, w.healthCheckJob); err != nil {
		return fmt.Errorf("failed to add health check job: %w", err)
	}
	w.cronJob.Start()
	w.isRunning = true

	w.logger.Info("Provisioning worker started successfully")
	return nil
}

// Run executes one provisioning pass
func (w *Worker) Run(ctx context.Context) error {
	w.status.begin()
	if err := w.provisioner.Ensure(ctx, w.status); err != nil {
		w.status.fail(models.StatusFailed, err)
		w.logger.Errorf("Table provisioning failed: %v", err)
		return err
	}
	w.logger.Infof("Table %s is ready", w.config.TableName)
	return nil
}

// healthCheckJob re-runs provisioning, which re-creates a missing table
func (w *Worker) healthCheckJob() {
	ctx, cancel := context.WithTimeout(w.ctx, w.config.WaitTimeout+time.Minute)
	defer cancel()

	w.logger.Debugf("Running table health check for %s", w.config.TableName)
	if err := w.Run(ctx); err != nil {
		w.status.fail(models.StatusHealthCheckError, err)
	}
}

// Status returns the last known provisioning status
func (w *Worker) Status() models.ProvisionStatus {
	return w.status.Snapshot()
}

// IsRunning reports whether the scheduled health check is active
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

// Stop cancels in-flight work and stops the scheduler
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cancel()
	if w.isRunning {
		w.cronJob.Stop()
		w.isRunning = false
	}
	w.logger.Info("Provisioning worker stopped")
}

func validateWorkerConfig(config *models.WorkerConfig) error {
	if config.TableName == "" {
		return fmt.Errorf("table name is required")
	}
	if config.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if config.WaitTimeout <= 0 || config.PollInterval <= 0 {
		return fmt.Errorf("wait timeout and poll interval must be positive")
	}
	if config.CronSchedule != "" {
		cronParser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := cronParser.Parse(config.CronSchedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s': %w", config.CronSchedule, err)
		}
	} else if !config.RunOnce {
		return fmt.Errorf("cron schedule is required unless running once")
	}
	return nil
}

// getCronScheduleForEnvironment returns environment-specific cron schedules
func getCronScheduleForEnvironment(env string) string {
	switch env {
	case "development":
		return "0 */1 * * * *" // Every minute for development
	case "testing":
		return "0 */5 * * * *" // Every 5 minutes for testing
	case "production":
		return "0 */15 * * * *" // Every 15 minutes for production
	default:
		return "0 */10 * * * *" // Every 10 minutes default
	}
}
