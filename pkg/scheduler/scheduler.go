package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdziat/hris-replica/pkg/core"
	"github.com/jdziat/hris-replica/pkg/runctx"
	"github.com/jdziat/hris-replica/pkg/schedule"
	"github.com/jdziat/hris-replica/pkg/synclog"
)

// Dispatcher runs the pipeline registered for a task.
type Dispatcher interface {
	Has(taskID string) bool
	Dispatch(ctx context.Context, req core.RunRequest) (*core.RunResult, error)
}

// Scheduler polls the task store and runs due tasks one after another.
type Scheduler struct {
	store      core.TaskStore
	dispatcher Dispatcher
	config     Config
	logger     logrus.FieldLogger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	subsMu    sync.RWMutex
	eventSubs []chan core.Event
}

// New creates a scheduler over store and dispatcher.
func New(store core.TaskStore, dispatcher Dispatcher, opts ...Option) *Scheduler {
	config := DefaultConfig()
	for _, opt := range opts {
		opt.ApplyScheduler(&config)
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger.WithField("module", "scheduler"),
	}
}

// Start releases stale running tasks and launches the tick loop. It returns
// immediately; use Stop to end the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("replica: scheduler already started")
	}

	staleBefore := s.now().Add(-s.config.StaleAfter)
	released, err := s.store.ReleaseStaleTasks(ctx, staleBefore)
	if err != nil {
		return fmt.Errorf("release stale tasks: %w", err)
	}
	if released > 0 {
		s.logger.WithField("released", released).Warn("released tasks stuck in running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	go s.loop(loopCtx, s.done)

	s.logger.WithField("tick", s.config.TickInterval.String()).Info("scheduler started")
	return nil
}

// Stop ends the tick loop and waits for it to exit. A pipeline that is already
// running finishes first; no new task is dispatched.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	s.safeTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeTick(ctx)
		}
	}
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("scheduler tick panicked")
		}
	}()
	if _, err := s.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WithError(err).Error("scheduler tick failed")
	}
}

// Tick evaluates every task that is not running and dispatches the due ones
// in order. It returns how many tasks were dispatched. Failures of a single
// task are logged and never stop the tick.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	var tasks []*core.ScheduleTask
	err := retryWithBackoff(ctx, s.config.StorageRetry, func() error {
		var listErr error
		tasks, listErr = s.store.ListIdleTasks(ctx)
		return listErr
	})
	if err != nil {
		return 0, fmt.Errorf("list tasks: %w", err)
	}

	dispatched := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return dispatched, ctx.Err()
		}
		if s.tickTask(ctx, task) {
			dispatched++
		}
	}
	return dispatched, nil
}

func (s *Scheduler) tickTask(ctx context.Context, task *core.ScheduleTask) (ran bool) {
	log := s.logger.WithField("task_id", task.TaskID)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("task evaluation panicked")
			ran = false
		}
	}()

	checker, err := schedule.ForTask(task, s.config.Location)
	if err != nil {
		log.WithError(err).Warn("task has an invalid schedule")
		return false
	}
	if !checker.IsDue(task, s.now()) {
		return false
	}
	if !s.dispatcher.Has(task.TaskID) {
		log.Warn("task is due but no pipeline is registered")
		return false
	}

	req := core.RunRequest{TaskID: task.TaskID, TriggeredBy: core.TriggeredByScheduler}
	if r, ok := task.DateRange(); ok {
		req.Range = &r
	}
	_, err = s.execute(ctx, req)
	if err != nil {
		if errors.Is(err, core.ErrTaskRunning) {
			return false
		}
		log.WithError(err).Error("failed to dispatch task")
		return false
	}
	return true
}

// TriggerOption adjusts a manual trigger.
type TriggerOption func(*core.RunRequest)

// WithRange overrides the task's configured date range for one run.
func WithRange(r core.DateRange) TriggerOption {
	return func(req *core.RunRequest) {
		req.Range = &r
	}
}

// Trigger runs a task now, bypassing its schedule. It fails with
// ErrTaskNotFound, ErrUnknownTask or ErrTaskRunning before running anything;
// a pipeline failure is reported in the result, not as an error.
func (s *Scheduler) Trigger(ctx context.Context, taskID, triggeredBy string, opts ...TriggerOption) (*core.TriggerResult, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !s.dispatcher.Has(taskID) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownTask, taskID)
	}
	if triggeredBy == "" {
		triggeredBy = core.TriggeredBySystem
	}
	req := core.RunRequest{TaskID: taskID, TriggeredBy: triggeredBy}
	if r, ok := task.DateRange(); ok {
		req.Range = &r
	}
	for _, opt := range opts {
		opt(&req)
	}
	return s.execute(ctx, req)
}

// execute claims the task, runs its pipeline and records the outcome.
func (s *Scheduler) execute(ctx context.Context, req core.RunRequest) (*core.TriggerResult, error) {
	log := s.logger.WithFields(logrus.Fields{"task_id": req.TaskID, "triggered_by": req.TriggeredBy})

	if s.config.Locker != nil {
		release, err := s.config.Locker.Obtain(ctx, req.TaskID, s.config.LockTTL)
		switch {
		case errors.Is(err, ErrLockNotObtained):
			s.Emit(&core.TaskSkipped{TaskID: req.TaskID, Reason: "locked by another scheduler", Timestamp: s.now()})
			return nil, fmt.Errorf("%w: %s", core.ErrTaskRunning, req.TaskID)
		case err != nil:
			log.WithError(err).Warn("distributed lock unavailable, relying on task status")
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					log.WithError(err).Warn("failed to release lock")
				}
			}()
		}
	}

	start := s.now()
	var claimed bool
	err := retryWithBackoff(ctx, s.config.StorageRetry, func() error {
		var claimErr error
		claimed, claimErr = s.store.ClaimTask(ctx, req.TaskID, start)
		return claimErr
	})
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	if !claimed {
		s.Emit(&core.TaskSkipped{TaskID: req.TaskID, Reason: "already running", Timestamp: start})
		return nil, fmt.Errorf("%w: %s", core.ErrTaskRunning, req.TaskID)
	}
	s.Emit(&core.TaskStarted{TaskID: req.TaskID, TriggeredBy: req.TriggeredBy, Timestamp: start})

	// Stopping the scheduler must not abort the pipeline or the final status write.
	runCtx := context.WithoutCancel(ctx)

	var logRun *synclog.Run
	if s.config.SyncLog != nil {
		logRun, err = s.config.SyncLog.Start(runCtx, req)
		if err != nil {
			log.WithError(err).Warn("failed to open sync log entry")
		}
	}

	run := runctx.Run{Request: req}
	if logRun != nil {
		run.LogID = logRun.ID()
	}
	result, runErr := s.dispatch(runctx.With(runCtx, run), req)
	duration := s.now().Sub(start)
	if result != nil && result.Duration == 0 {
		result.Duration = duration
	}

	status, message := core.StatusIdle, result.Summary()
	if runErr != nil {
		status, message = core.StatusError, runErr.Error()
	}
	if message == "" {
		message = "completed"
	}
	finishErr := retryWithBackoff(runCtx, s.config.StorageRetry, func() error {
		return s.store.FinishTask(runCtx, req.TaskID, status, message)
	})
	if finishErr != nil {
		log.WithError(finishErr).Error("failed to record task outcome")
	}
	if logRun != nil {
		_ = logRun.Finish(runCtx, result, runErr)
	}

	tr := &core.TriggerResult{TaskID: req.TaskID, Duration: duration, Success: runErr == nil}
	if logRun != nil {
		tr.LogID = logRun.ID()
	}
	if result != nil {
		tr.Counts = *result
	}
	if runErr != nil {
		tr.Error = runErr.Error()
		log.WithError(runErr).WithField("duration", duration.String()).Error("task failed")
		s.Emit(&core.TaskFailed{TaskID: req.TaskID, Error: runErr, Timestamp: s.now()})
	} else {
		log.WithField("summary", message).Info("task completed")
		s.Emit(&core.TaskCompleted{TaskID: req.TaskID, Result: result, Duration: duration, Timestamp: s.now()})
	}
	return tr, nil
}

func (s *Scheduler) dispatch(ctx context.Context, req core.RunRequest) (res *core.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.dispatcher.Dispatch(ctx, req)
}

func (s *Scheduler) now() time.Time {
	return s.config.Clock.Now()
}
