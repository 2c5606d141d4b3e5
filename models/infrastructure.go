package models

import "time"

// HealthStatus is returned by the infrastructure health endpoint
type HealthStatus struct {
	Service     string           `json:"service"`
	Version     string           `json:"version"`
	Backend     string           `json:"backend"`
	TableName   string           `json:"tableName"`
	TableStatus string           `json:"tableStatus"`
	Indexes     []string         `json:"indexes,omitempty"`
	Provision   *ProvisionStatus `json:"provision,omitempty"`
}

// ProvisionResult reports a manually triggered provisioning run
type ProvisionResult struct {
	Status    string          `json:"status"` // completed, failed
	StartTime time.Time       `json:"startTime"`
	EndTime   time.Time       `json:"endTime"`
	Error     string          `json:"error,omitempty"`
	Provision ProvisionStatus `json:"provision"`
}
