// Package scheduler provides the ticking Scheduler that fires due sync tasks.
//
// This package includes:
//   - Scheduler: polls the task store, evaluates due-ness and dispatches
//   - Option: tick interval, clock, location, stale threshold, locking
//   - Locker: optional cross-process lock, with a Redis implementation
//   - Event subscription for monitoring
//
// The task row's status column is the per-task mutex: a task is claimed with
// one conditional UPDATE before its pipeline runs, so overlapping ticks,
// manual triggers and other scheduler processes never run it twice.
package scheduler
