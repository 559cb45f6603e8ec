package core

import (
	"time"

	"gorm.io/datatypes"
)

// SyncLogStatus is the lifecycle state of a sync log entry.
type SyncLogStatus string

const (
	SyncStarted   SyncLogStatus = "started"
	SyncCompleted SyncLogStatus = "completed"
	SyncFailed    SyncLogStatus = "failed"
)

// Well-known triggering actors.
const (
	TriggeredByScheduler = "scheduler"
	TriggeredBySystem    = "system"
)

// SyncLogEntry is the audit record of one pipeline execution.
type SyncLogEntry struct {
	ID             string         `gorm:"primaryKey;size:36"`
	SyncType       string         `gorm:"index;size:100;not null"`
	TaskID         string         `gorm:"index;size:100"`
	Status         SyncLogStatus  `gorm:"index;size:20;not null"`
	RecordsSynced  int            `gorm:"default:0"`
	RecordsAdded   int            `gorm:"default:0"`
	RecordsUpdated int            `gorm:"default:0"`
	RecordsSkipped int            `gorm:"default:0"`
	RecordsFailed  int            `gorm:"default:0"`
	StartedAt      time.Time      `gorm:"index"`
	CompletedAt    *time.Time
	DurationMs     int64
	TriggeredBy    string         `gorm:"size:100"`
	ErrorMessage   string         `gorm:"type:text"`
	Details        datatypes.JSON `gorm:"column:details"`
}

// TableName keeps the audit table name stable.
func (SyncLogEntry) TableName() string {
	return "sync_logs"
}
