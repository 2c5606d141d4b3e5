package worker

import (
	"sync"
	"time"

	"github.com/demariano/php-suite-sub002/models"
)

// StatusTracker keeps the latest provisioning status in memory
type StatusTracker struct {
	mu     sync.RWMutex
	status models.ProvisionStatus
	now    func() time.Time
}

func NewStatusTracker(tableName string) *StatusTracker {
	return &StatusTracker{
		status: models.ProvisionStatus{Status: models.StatusIdle, TableName: tableName},
		now:    time.Now,
	}
}

// Snapshot returns a copy of the current status
func (s *StatusTracker) Snapshot() models.ProvisionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *StatusTracker) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Attempts++
	s.status.LastRunAt = s.now()
	s.status.LastError = ""
}

func (s *StatusTracker) update(status models.WorkerStatus, tableStatus string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Status = status
	if tableStatus != "" {
		s.status.TableStatus = tableStatus
	}
}

func (s *StatusTracker) markCreated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Created = true
}

func (s *StatusTracker) fail(status models.WorkerStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Status = status
	s.status.LastError = err.Error()
}
