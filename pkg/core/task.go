package core

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the current state of a schedule task.
type TaskStatus string

const (
	StatusIdle    TaskStatus = "idle"
	StatusRunning TaskStatus = "running" // Acts as the per-task mutex
	StatusError   TaskStatus = "error"
)

// TaskMode controls whether the scheduler may fire a task on its own.
type TaskMode string

const (
	ModeManual TaskMode = "manual"
	ModeAuto   TaskMode = "auto"
)

// RepeatInterval is the recurrence of a repeating task.
type RepeatInterval string

const (
	RepeatNone           RepeatInterval = "none"
	RepeatEvery30Seconds RepeatInterval = "every_30_seconds"
	RepeatEveryMinute    RepeatInterval = "every_minute"
	RepeatEvery5Minutes  RepeatInterval = "every_5_minutes"
	RepeatEvery15Minutes RepeatInterval = "every_15_minutes"
	RepeatEvery30Minutes RepeatInterval = "every_30_minutes"
	RepeatHourly         RepeatInterval = "hourly"
	RepeatDaily          RepeatInterval = "daily"
	RepeatWeekly         RepeatInterval = "weekly"
)

var repeatSeconds = map[RepeatInterval]int64{
	RepeatEvery30Seconds: 30,
	RepeatEveryMinute:    60,
	RepeatEvery5Minutes:  300,
	RepeatEvery15Minutes: 900,
	RepeatEvery30Minutes: 1800,
	RepeatHourly:         3600,
	RepeatDaily:          86400,
	RepeatWeekly:         604800,
}

// Seconds returns the interval length in seconds, or 0 for none/unknown values.
func (r RepeatInterval) Seconds() int64 {
	return repeatSeconds[r]
}

// Duration returns the interval length as a time.Duration.
func (r RepeatInterval) Duration() time.Duration {
	return time.Duration(r.Seconds()) * time.Second
}

// Valid reports whether r is one of the known intervals (including none).
func (r RepeatInterval) Valid() bool {
	if r == RepeatNone || r == "" {
		return true
	}
	_, ok := repeatSeconds[r]
	return ok
}

// Built-in task identifiers.
const (
	TaskOrgHierarchySync      = "org_hierarchy_sync"
	TaskEmployeeSync          = "employee_sync"
	TaskEmployeeIndexBuild    = "employee_index_build"
	TaskAttendanceSync        = "attendance_sync"
	TaskDailyStatsRollup      = "daily_stats_rollup"
	TaskReportCacheInvalidate = "report_cache_invalidate"
)

// ScheduleTask describes when a sync pipeline should run and what happened last time.
type ScheduleTask struct {
	TaskID         string         `gorm:"primaryKey;size:100"`
	TaskName       string         `gorm:"size:255"`
	Description    string         `gorm:"type:text"`
	Mode           TaskMode       `gorm:"size:10;default:'manual'"`
	ScheduleDate   *string        `gorm:"size:10"` // YYYY-MM-DD
	ScheduleTime   *string        `gorm:"size:8"`  // HH:MM or HH:MM:SS
	CronExpr       string         `gorm:"size:100"`
	RepeatEnabled  bool           `gorm:"default:false"`
	RepeatInterval RepeatInterval `gorm:"size:20;default:'none'"`
	DateRangeStart *string        `gorm:"size:10"`
	DateRangeEnd   *string        `gorm:"size:10"`
	Status         TaskStatus     `gorm:"index;size:10;default:'idle'"`
	LastRun        *time.Time     `gorm:"index"`
	LastMessage    *string        `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

// Repeats reports whether the task uses fixed-interval recurrence.
func (t *ScheduleTask) Repeats() bool {
	return t.RepeatEnabled && t.RepeatInterval != RepeatNone && t.RepeatInterval != ""
}

// HasTiming reports whether any field would give the task a schedule:
// a cron expression, an enabled repeat interval or a time of day.
func (t *ScheduleTask) HasTiming() bool {
	if strings.TrimSpace(t.CronExpr) != "" || t.Repeats() {
		return true
	}
	return t.ScheduleTime != nil && strings.TrimSpace(*t.ScheduleTime) != ""
}

// DefaultMode is the mode used when none was given. Tasks that carry
// timing fields run automatically, the rest wait for a manual trigger.
func (t *ScheduleTask) DefaultMode() TaskMode {
	if t.HasTiming() {
		return ModeAuto
	}
	return ModeManual
}

// DateRange returns the task's configured range, if both ends are set and valid.
func (t *ScheduleTask) DateRange() (DateRange, bool) {
	if t.DateRangeStart == nil || t.DateRangeEnd == nil {
		return DateRange{}, false
	}
	r, err := ParseDateRange(*t.DateRangeStart, *t.DateRangeEnd)
	if err != nil {
		return DateRange{}, false
	}
	return r, true
}

// RunRequest is what the dispatcher hands to a pipeline.
type RunRequest struct {
	TaskID      string
	TriggeredBy string
	Range       *DateRange
}

// RunResult holds the counts a pipeline reports back.
type RunResult struct {
	Processed int
	Inserted  int
	Updated   int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Details   map[string]any
}

// Summary renders the counts as a short status message.
func (r *RunResult) Summary() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("processed=%d inserted=%d updated=%d skipped=%d failed=%d in %s",
		r.Processed, r.Inserted, r.Updated, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
}

// TriggerResult is the synchronous outcome of a manual trigger.
type TriggerResult struct {
	Success  bool
	TaskID   string
	Counts   RunResult
	Duration time.Duration
	LogID    string
	Error    string
}
