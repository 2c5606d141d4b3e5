package models

import "time"

// WorkerStatus represents the current status of the provisioning worker
type WorkerStatus string

const (
	StatusIdle             WorkerStatus = "idle"
	StatusCreatingTable    WorkerStatus = "creating_table"
	StatusWaitingForTable  WorkerStatus = "waiting_for_table"
	StatusCompleted        WorkerStatus = "completed"
	StatusFailed           WorkerStatus = "failed"
	StatusHealthCheckError WorkerStatus = "health_check_failed"
)

// WorkerConfig holds configuration for the provisioning worker
type WorkerConfig struct {
	CronSchedule string        `json:"cron_schedule"`
	Environment  string        `json:"environment"`
	TableName    string        `json:"table_name"`
	MaxRetries   int           `json:"max_retries"`
	RetryDelay   time.Duration `json:"retry_delay"`
	WaitTimeout  time.Duration `json:"wait_timeout"`
	PollInterval time.Duration `json:"poll_interval"`
	RunOnce      bool          `json:"run_once"`
}

// ProvisionStatus is a snapshot of the last provisioning run
type ProvisionStatus struct {
	Status      WorkerStatus `json:"status"`
	TableName   string       `json:"tableName"`
	TableStatus string       `json:"tableStatus,omitempty"`
	Created     bool         `json:"created"`
	Attempts    int          `json:"attempts"`
	LastRunAt   time.Time    `json:"lastRunAt,omitempty"`
	LastError   string       `json:"lastError,omitempty"`
}
