package core

import (
	"context"
	"time"
)

// Pipeline is one independently invokable sync unit.
type Pipeline interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// PipelineFunc adapts a function to Pipeline.
type PipelineFunc func(ctx context.Context, req RunRequest) (*RunResult, error)

// Run calls f.
func (f PipelineFunc) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	return f(ctx, req)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }
