// Package replica keeps a local replica of an HRIS and its attendance data in
// sync on a database-driven schedule.
//
// This is the main package users should import. It re-exports the public
// types from the internal pkg/ packages and wires them into an App.
//
// Basic usage:
//
//	cfg, _ := config.Load()
//	app, _ := replica.NewApp(cfg, cfg.NewLogger())
//	defer app.Close()
//	app.Migrate(ctx)
//	app.SeedDefaults(ctx)
//	app.Scheduler.Run(ctx)
package replica

import (
	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/scheduler"
	"github.com/jdziat/hris-replica/pkg/storage"
)

// Type aliases for the public surface.
type (
	// ScheduleTask describes when a pipeline runs.
	ScheduleTask = core.ScheduleTask

	// TaskStatus is the state of a task.
	TaskStatus = core.TaskStatus

	// RunRequest is what a pipeline receives.
	RunRequest = core.RunRequest

	// RunResult holds the counts a pipeline reports.
	RunResult = core.RunResult

	// TriggerResult is the outcome of a manual trigger.
	TriggerResult = core.TriggerResult

	// DateRange is an inclusive range of civil dates.
	DateRange = core.DateRange

	// Pipeline is a sync pipeline.
	Pipeline = core.Pipeline

	// Event is the interface for all scheduler events.
	Event = core.Event

	// Scheduler runs due tasks.
	Scheduler = scheduler.Scheduler

	// GormStorage implements the replica store using GORM.
	GormStorage = storage.GormStorage
)

// Status constants
const (
	StatusIdle    = core.StatusIdle
	StatusRunning = core.StatusRunning
	StatusError   = core.StatusError
)

// Error variables
var (
	ErrTaskNotFound  = core.ErrTaskNotFound
	ErrTaskRunning   = core.ErrTaskRunning
	ErrUnknownTask   = core.ErrUnknownTask
	ErrInvalidTaskID = core.ErrInvalidTaskID
)
