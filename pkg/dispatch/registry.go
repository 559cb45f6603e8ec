package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/security"
)

type registration struct {
	pipeline core.Pipeline
	options  *Options
}

// Registry maps task IDs to pipelines.
type Registry struct {
	mu             sync.RWMutex
	pipelines      map[string]*registration
	defaultTimeout time.Duration
}

// NewRegistry creates an empty registry. A zero defaultTimeout uses DefaultTimeout.
func NewRegistry(defaultTimeout time.Duration) *Registry {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Registry{
		pipelines:      make(map[string]*registration),
		defaultTimeout: defaultTimeout,
	}
}

// Register binds taskID to p. It panics on an invalid task ID or nil pipeline,
// since both are programming errors caught at startup.
func (r *Registry) Register(taskID string, p core.Pipeline, opts ...Option) {
	if err := security.ValidateTaskID(taskID); err != nil {
		panic(fmt.Sprintf("replica: invalid task id %q: %v", taskID, err))
	}
	if p == nil {
		panic(fmt.Sprintf("replica: nil pipeline for %q", taskID))
	}
	o := NewOptions()
	for _, opt := range opts {
		opt.Apply(o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[taskID] = &registration{pipeline: p, options: o}
}

// RegisterFunc is Register for a plain function.
func (r *Registry) RegisterFunc(taskID string, fn func(context.Context, core.RunRequest) (*core.RunResult, error), opts ...Option) {
	r.Register(taskID, core.PipelineFunc(fn), opts...)
}

// Has reports whether a pipeline is registered for taskID.
func (r *Registry) Has(taskID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pipelines[taskID]
	return ok
}

// TaskIDs returns the registered task IDs in sorted order.
func (r *Registry) TaskIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.pipelines))
	for id := range r.pipelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Description returns the registered description of taskID.
func (r *Registry) Description(taskID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.pipelines[taskID]; ok {
		return reg.options.Description
	}
	return ""
}

// TimeoutFor returns the deadline applied to taskID.
func (r *Registry) TimeoutFor(taskID string) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.pipelines[taskID]; ok && reg.options.Timeout > 0 {
		return reg.options.Timeout
	}
	return r.defaultTimeout
}

// Dispatch runs the pipeline registered for req.TaskID under its deadline.
// A panic inside the pipeline is returned as an error.
func (r *Registry) Dispatch(ctx context.Context, req core.RunRequest) (res *core.RunResult, err error) {
	r.mu.RLock()
	reg, ok := r.pipelines[req.TaskID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownTask, req.TaskID)
	}

	timeout := reg.options.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = fmt.Errorf("panic in %s: %v\n%s", req.TaskID, rec, debug.Stack())
		}
	}()
	return reg.pipeline.Run(runCtx, req)
}
