// Package schedule decides whether a schedule task is due on a given tick.
//
// This package includes:
//   - DueChecker interface evaluated by the scheduler on every tick
//   - Interval() for fixed-interval recurrence with an optional start gate
//   - OneTime() for a single date+time trigger that never re-fires
//   - DailyAt() for a time-of-day trigger repeated every day
//   - Cron() for cron expression-based schedules
//   - ForTask() which picks the checker that matches a task's fields
package schedule
