// Package runctx gives pipelines and their collaborators access to the run
// they execute in.
package runctx

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jdziat/hris-replica/pkg/core"
)

type runKey struct{}

// Run identifies the execution a context belongs to.
type Run struct {
	Request core.RunRequest
	// LogID is the sync log entry of the run, empty when none was written.
	LogID string
}

// With returns a copy of ctx carrying run.
func With(ctx context.Context, run Run) context.Context {
	return context.WithValue(ctx, runKey{}, run)
}

// FromContext returns the run stored in ctx, if any.
func FromContext(ctx context.Context) (Run, bool) {
	run, ok := ctx.Value(runKey{}).(Run)
	return run, ok
}

// TaskID returns the task of the current run, or "" outside a run.
func TaskID(ctx context.Context) string {
	run, _ := FromContext(ctx)
	return run.Request.TaskID
}

// LogID returns the sync log entry of the current run, or "" outside a run.
func LogID(ctx context.Context) string {
	run, _ := FromContext(ctx)
	return run.LogID
}

// Fields returns log fields identifying the current run.
func Fields(ctx context.Context) logrus.Fields {
	run, ok := FromContext(ctx)
	if !ok {
		return logrus.Fields{}
	}
	f := logrus.Fields{"task_id": run.Request.TaskID, "triggered_by": run.Request.TriggeredBy}
	if run.LogID != "" {
		f["sync_log_id"] = run.LogID
	}
	return f
}
