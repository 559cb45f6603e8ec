package core

import (
	"context"
	"time"
)

// TaskStore persists schedule tasks.
type TaskStore interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	GetTask(ctx context.Context, taskID string) (*ScheduleTask, error)
	ListTasks(ctx context.Context) ([]*ScheduleTask, error)
	ListIdleTasks(ctx context.Context) ([]*ScheduleTask, error)
	SaveTask(ctx context.Context, task *ScheduleTask) error
	SeedTask(ctx context.Context, task *ScheduleTask) (bool, error)
	DeleteTask(ctx context.Context, taskID string) error

	// ClaimTask flips a task to running and stamps last_run in one statement.
	// It returns false when the task is already running.
	ClaimTask(ctx context.Context, taskID string, now time.Time) (bool, error)
	FinishTask(ctx context.Context, taskID string, status TaskStatus, message string) error
	ReleaseStaleTasks(ctx context.Context, staleBefore time.Time) (int64, error)
}

// SyncLogStore persists the audit trail of pipeline executions.
type SyncLogStore interface {
	CreateSyncLog(ctx context.Context, entry *SyncLogEntry) error
	CompleteSyncLog(ctx context.Context, entry *SyncLogEntry) error
	ListSyncLogs(ctx context.Context, syncType string, limit int) ([]*SyncLogEntry, error)
}

// AttendanceStore persists reconciled attendance and its derived tables.
type AttendanceStore interface {
	ExistingAttendanceKeys(ctx context.Context, r DateRange) (map[AttendanceKey]struct{}, error)
	UpsertAttendance(ctx context.Context, rec *AttendanceSyncRecord) error
	RecomputeDailyStats(ctx context.Context, r DateRange, now time.Time) (int, error)
	InvalidateReportCache(ctx context.Context, r *DateRange) (int64, error)
}

// DirectoryStore persists the replicated organization and employee directory.
type DirectoryStore interface {
	ActiveEmployees(ctx context.Context) ([]Employee, error)
	UpsertEmployee(ctx context.Context, emp *Employee) (bool, error)
	DeactivateEmployeesExcept(ctx context.Context, keep []string) (int64, error)
	UpsertDivision(ctx context.Context, d *Division) (bool, error)
	UpsertSection(ctx context.Context, s *Section) (bool, error)
	UpsertSubSection(ctx context.Context, s *SubSection) (bool, error)
	LoadOrgUnits(ctx context.Context) (*OrgUnits, error)
}

// IndexStore persists the insert-only employee index.
type IndexStore interface {
	IndexedEmployeeIDs(ctx context.Context) (map[string]struct{}, error)
	// InsertIndexEntry inserts the entry unless one already exists; it reports
	// whether a row was written.
	InsertIndexEntry(ctx context.Context, entry *EmployeeIndexEntry) (bool, error)
}

// PunchSource is the raw biometric punch store.
type PunchSource interface {
	GroupPunches(ctx context.Context, r DateRange) ([]PunchGroup, error)
}

// Storage is everything the replica keeps in its own relational store.
type Storage interface {
	TaskStore
	SyncLogStore
	AttendanceStore
	DirectoryStore
	IndexStore
}
