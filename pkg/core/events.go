package core

import "time"

// Event is the interface for all scheduler events.
type Event interface {
	eventMarker()
}

// TaskStarted is emitted when a task is claimed and its pipeline dispatched.
type TaskStarted struct {
	TaskID      string
	TriggeredBy string
	Timestamp   time.Time
}

func (*TaskStarted) eventMarker() {}

// TaskCompleted is emitted when a pipeline finishes without error.
type TaskCompleted struct {
	TaskID    string
	Result    *RunResult
	Duration  time.Duration
	Timestamp time.Time
}

func (*TaskCompleted) eventMarker() {}

// TaskFailed is emitted when a pipeline returns an error or panics.
type TaskFailed struct {
	TaskID    string
	Error     error
	Timestamp time.Time
}

func (*TaskFailed) eventMarker() {}

// TaskSkipped is emitted when a due task could not be claimed.
type TaskSkipped struct {
	TaskID    string
	Reason    string
	Timestamp time.Time
}

func (*TaskSkipped) eventMarker() {}
