package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/security"
)

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying connection.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the storage runs on SQLite.
func (s *GormStorage) IsSQLite() bool {
	return s.db != nil && s.db.Dialector != nil && s.db.Dialector.Name() == "sqlite"
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&core.ScheduleTask{},
		&core.SyncLogEntry{},
		&core.AttendanceSyncRecord{},
		&core.DailyStat{},
		&core.ReportCacheEntry{},
		&core.Division{},
		&core.Section{},
		&core.SubSection{},
		&core.SubSectionTransfer{},
		&core.Employee{},
		&core.EmployeeIndexEntry{},
	)
}

// GetTask retrieves a task by ID.
func (s *GormStorage) GetTask(ctx context.Context, taskID string) (*core.ScheduleTask, error) {
	var task core.ScheduleTask
	err := s.db.WithContext(ctx).First(&task, "task_id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns every task ordered by ID.
func (s *GormStorage) ListTasks(ctx context.Context) ([]*core.ScheduleTask, error) {
	var tasks []*core.ScheduleTask
	err := s.db.WithContext(ctx).Order("task_id ASC").Find(&tasks).Error
	return tasks, err
}

// ListIdleTasks returns tasks that are not currently running.
func (s *GormStorage) ListIdleTasks(ctx context.Context) ([]*core.ScheduleTask, error) {
	var tasks []*core.ScheduleTask
	err := s.db.WithContext(ctx).
		Where("status <> ?", core.StatusRunning).
		Order("task_id ASC").
		Find(&tasks).Error
	return tasks, err
}

// SaveTask creates or fully replaces a task definition.
func (s *GormStorage) SaveTask(ctx context.Context, task *core.ScheduleTask) error {
	if err := security.ValidateTaskID(task.TaskID); err != nil {
		return err
	}
	applyTaskDefaults(task)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"task_name", "description", "mode", "schedule_date", "schedule_time",
				"cron_expr", "repeat_enabled", "repeat_interval", "date_range_start",
				"date_range_end", "updated_at",
			}),
		}).
		Create(task).Error
}

// SeedTask inserts a task only if no task with the same ID exists.
func (s *GormStorage) SeedTask(ctx context.Context, task *core.ScheduleTask) (bool, error) {
	if err := security.ValidateTaskID(task.TaskID); err != nil {
		return false, err
	}
	applyTaskDefaults(task)
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(task)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteTask removes a task definition.
func (s *GormStorage) DeleteTask(ctx context.Context, taskID string) error {
	result := s.db.WithContext(ctx).Delete(&core.ScheduleTask{}, "task_id = ?", taskID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", core.ErrTaskNotFound, taskID)
	}
	return nil
}

// ClaimTask marks a task running and stamps last_run, unless it is already running.
func (s *GormStorage) ClaimTask(ctx context.Context, taskID string, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&core.ScheduleTask{}).
		Where("task_id = ? AND status <> ?", taskID, core.StatusRunning).
		Updates(map[string]any{
			"status":   core.StatusRunning,
			"last_run": now.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FinishTask records the outcome of a run.
// Messages are sanitized before storage.
func (s *GormStorage) FinishTask(ctx context.Context, taskID string, status core.TaskStatus, message string) error {
	msg := security.SanitizeErrorMessage(message)
	result := s.db.WithContext(ctx).
		Model(&core.ScheduleTask{}).
		Where("task_id = ?", taskID).
		Updates(map[string]any{
			"status":       status,
			"last_message": msg,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", core.ErrTaskNotFound, taskID)
	}
	return nil
}

// ReleaseStaleTasks flips tasks stuck in running since before staleBefore to error.
func (s *GormStorage) ReleaseStaleTasks(ctx context.Context, staleBefore time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&core.ScheduleTask{}).
		Where("status = ?", core.StatusRunning).
		Where("last_run IS NULL OR last_run < ?", staleBefore.UTC()).
		Updates(map[string]any{
			"status":       core.StatusError,
			"last_message": "released: run exceeded stale threshold",
		})
	return result.RowsAffected, result.Error
}

func applyTaskDefaults(task *core.ScheduleTask) {
	if task.RepeatInterval == "" {
		task.RepeatInterval = core.RepeatNone
	}
	if task.Mode == "" {
		task.Mode = task.DefaultMode()
	}
	if task.Status == "" {
		task.Status = core.StatusIdle
	}
}

// CreateSyncLog appends a new sync log entry.
func (s *GormStorage) CreateSyncLog(ctx context.Context, entry *core.SyncLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = core.SyncStarted
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// CompleteSyncLog writes the final counts and status of an entry.
func (s *GormStorage) CompleteSyncLog(ctx context.Context, entry *core.SyncLogEntry) error {
	entry.ErrorMessage = security.SanitizeErrorMessage(entry.ErrorMessage)
	return s.db.WithContext(ctx).
		Model(&core.SyncLogEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"status":          entry.Status,
			"records_synced":  entry.RecordsSynced,
			"records_added":   entry.RecordsAdded,
			"records_updated": entry.RecordsUpdated,
			"records_skipped": entry.RecordsSkipped,
			"records_failed":  entry.RecordsFailed,
			"completed_at":    entry.CompletedAt,
			"duration_ms":     entry.DurationMs,
			"error_message":   entry.ErrorMessage,
			"details":         entry.Details,
		}).Error
}

// ListSyncLogs returns the newest entries, optionally filtered by sync type.
func (s *GormStorage) ListSyncLogs(ctx context.Context, syncType string, limit int) ([]*core.SyncLogEntry, error) {
	var entries []*core.SyncLogEntry
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if syncType != "" {
		q = q.Where("sync_type = ?", syncType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return entries, q.Find(&entries).Error
}
