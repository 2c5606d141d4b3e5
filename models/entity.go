package models

import "time"

// TimestampFormat is fixed-width UTC so that stored timestamps sort lexically
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampFormat
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// Entity is implemented by every DTO persisted in the single table
type Entity interface {
	GetID() string
	SetID(id string)
	GetName() string
	GetStatus() string
	SetStatus(status string)
	MarkCreated(at time.Time, actor string)
	MarkModified(at time.Time, actor string)
	AppendActivity(entry string, limit int)
	ResetAudit()
}

// Base carries the attributes shared by all entity types
type Base struct {
	ID           string            `json:"id" dynamodbav:"id"`
	Status       string            `json:"status" dynamodbav:"status"`
	Metadata     map[string]string `json:"metadata" dynamodbav:"metadata"`
	ActivityLogs []string          `json:"activityLogs" dynamodbav:"activityLogs"`
	CreatedBy    string            `json:"createdBy" dynamodbav:"createdBy"`
	DateCreated  string            `json:"dateCreated" dynamodbav:"dateCreated"`
	ModifiedBy   string            `json:"modifiedBy" dynamodbav:"modifiedBy"`
	ModifiedDate string            `json:"modifiedDate" dynamodbav:"modifiedDate"`
}

func (b *Base) GetID() string           { return b.ID }
func (b *Base) SetID(id string)         { b.ID = id }
func (b *Base) GetStatus() string       { return b.Status }
func (b *Base) SetStatus(status string) { b.Status = status }

// MarkCreated stamps creation and modification with the same instant
func (b *Base) MarkCreated(at time.Time, actor string) {
	ts := FormatTimestamp(at)
	b.CreatedBy = actor
	b.DateCreated = ts
	b.ModifiedBy = actor
	b.ModifiedDate = ts
}

func (b *Base) MarkModified(at time.Time, actor string) {
	b.ModifiedBy = actor
	b.ModifiedDate = FormatTimestamp(at)
}

// ResetAudit clears the audit trail so it can only be written by the service
func (b *Base) ResetAudit() {
	b.ActivityLogs = nil
	b.CreatedBy = ""
	b.DateCreated = ""
	b.ModifiedBy = ""
	b.ModifiedDate = ""
}

// AppendActivity adds entry and keeps only the most recent limit entries
func (b *Base) AppendActivity(entry string, limit int) {
	b.ActivityLogs = append(b.ActivityLogs, entry)
	if limit > 0 && len(b.ActivityLogs) > limit {
		b.ActivityLogs = append([]string(nil), b.ActivityLogs[len(b.ActivityLogs)-limit:]...)
	}
}
