package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/hris-replica/pkg/core"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func autoTask() *core.ScheduleTask {
	return &core.ScheduleTask{TaskID: "attendance_sync", Mode: core.ModeAuto, RepeatInterval: core.RepeatNone}
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixed interval
// ──────────────────────────────────────────────────────────────────────────────

func TestInterval_HourlyBoundary(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	task := autoTask()
	task.RepeatEnabled = true
	task.RepeatInterval = core.RepeatHourly

	task.LastRun = timePtr(now.Add(-3601 * time.Second))
	assert.True(t, IsDue(task, now, time.UTC), "3601s ago should be due")

	task.LastRun = timePtr(now.Add(-3599 * time.Second))
	assert.False(t, IsDue(task, now, time.UTC), "3599s ago should not be due")

	task.LastRun = timePtr(now.Add(-3600 * time.Second))
	assert.True(t, IsDue(task, now, time.UTC), "exactly one interval is due")
}

func TestInterval_NeverRunIsDueImmediately(t *testing.T) {
	task := autoTask()
	task.RepeatEnabled = true
	task.RepeatInterval = core.RepeatEvery30Seconds

	assert.True(t, IsDue(task, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.UTC))
}

func TestInterval_StartGate(t *testing.T) {
	task := autoTask()
	task.RepeatEnabled = true
	task.RepeatInterval = core.RepeatEvery5Minutes
	task.ScheduleDate = strPtr("2025-01-01")
	task.ScheduleTime = strPtr("08:00:00")

	before := time.Date(2025, 1, 1, 7, 59, 59, 0, time.UTC)
	after := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	assert.False(t, IsDue(task, before, time.UTC), "gate not reached")
	assert.True(t, IsDue(task, after, time.UTC), "gate reached")

	// Once it has run the gate no longer matters.
	task.LastRun = timePtr(after)
	assert.False(t, IsDue(task, after.Add(4*time.Minute), time.UTC))
	assert.True(t, IsDue(task, after.Add(5*time.Minute), time.UTC))
}

func TestInterval_AllIntervals(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, interval := range []core.RepeatInterval{
		core.RepeatEvery30Seconds, core.RepeatEveryMinute, core.RepeatEvery5Minutes,
		core.RepeatEvery15Minutes, core.RepeatEvery30Minutes, core.RepeatHourly,
		core.RepeatDaily, core.RepeatWeekly,
	} {
		task := autoTask()
		task.RepeatEnabled = true
		task.RepeatInterval = interval

		task.LastRun = timePtr(now.Add(-interval.Duration()))
		assert.True(t, IsDue(task, now, time.UTC), "%s elapsed", interval)

		task.LastRun = timePtr(now.Add(-interval.Duration() + time.Second))
		assert.False(t, IsDue(task, now, time.UTC), "%s not yet elapsed", interval)
	}
}

func TestInterval_DisabledRepeatFallsThrough(t *testing.T) {
	task := autoTask()
	task.RepeatEnabled = false
	task.RepeatInterval = core.RepeatHourly

	assert.False(t, IsDue(task, time.Now(), time.UTC), "no timing fields means manual-only")
}

// ──────────────────────────────────────────────────────────────────────────────
// One-time
// ──────────────────────────────────────────────────────────────────────────────

func TestOneTime_FiresOnce(t *testing.T) {
	task := autoTask()
	task.ScheduleDate = strPtr("2025-01-01")
	task.ScheduleTime = strPtr("08:00:00")
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, IsDue(task, now, time.UTC))

	task.LastRun = timePtr(now)
	assert.False(t, IsDue(task, now, time.UTC))
	assert.False(t, IsDue(task, now.AddDate(1, 0, 0), time.UTC), "never re-fires")
}

func TestOneTime_NotYetReached(t *testing.T) {
	task := autoTask()
	task.ScheduleDate = strPtr("2025-01-01")
	task.ScheduleTime = strPtr("08:00")

	assert.False(t, IsDue(task, time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC), time.UTC))
}

func TestOneTime_RunBeforeInstantStillFires(t *testing.T) {
	task := autoTask()
	task.ScheduleDate = strPtr("2025-01-01")
	task.ScheduleTime = strPtr("08:00:00")
	task.LastRun = timePtr(time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC))

	assert.True(t, IsDue(task, time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), time.UTC))
}

func TestOneTime_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	task := autoTask()
	task.ScheduleDate = strPtr("2025-01-01")
	task.ScheduleTime = strPtr("08:00:00")

	// 08:00 at UTC+5:30 is 02:30 UTC.
	assert.False(t, IsDue(task, time.Date(2025, 1, 1, 2, 29, 0, 0, time.UTC), loc))
	assert.True(t, IsDue(task, time.Date(2025, 1, 1, 2, 30, 0, 0, time.UTC), loc))
}

// ──────────────────────────────────────────────────────────────────────────────
// Daily time-of-day
// ──────────────────────────────────────────────────────────────────────────────

func TestDaily_FiresOncePerDay(t *testing.T) {
	task := autoTask()
	task.ScheduleTime = strPtr("06:30:00")

	morning := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	assert.False(t, IsDue(task, morning, time.UTC), "before today's instant")

	fire := time.Date(2025, 3, 1, 6, 30, 5, 0, time.UTC)
	assert.True(t, IsDue(task, fire, time.UTC), "never run")

	task.LastRun = timePtr(fire)
	assert.False(t, IsDue(task, fire.Add(time.Hour), time.UTC), "already ran today")

	nextDay := time.Date(2025, 3, 2, 6, 30, 0, 0, time.UTC)
	assert.True(t, IsDue(task, nextDay, time.UTC), "ran yesterday")
}

func TestDaily_Next(t *testing.T) {
	checker := DailyAt(9, 30, 0, time.UTC)
	task := autoTask()
	task.LastRun = timePtr(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC))

	next, ok := checker.Next(task, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), next)

	next, ok = checker.Next(task, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), next)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cron
// ──────────────────────────────────────────────────────────────────────────────

func TestCron_DueAfterNextFireTime(t *testing.T) {
	task := autoTask()
	task.CronExpr = "0 2 * * *"
	task.LastRun = timePtr(time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC))

	assert.False(t, IsDue(task, time.Date(2025, 3, 2, 1, 59, 0, 0, time.UTC), time.UTC))
	assert.True(t, IsDue(task, time.Date(2025, 3, 2, 2, 0, 0, 0, time.UTC), time.UTC))
}

func TestCron_NeverRunCountsFromCreation(t *testing.T) {
	task := autoTask()
	task.CronExpr = "0 2 * * *"
	task.CreatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.False(t, IsDue(task, time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC), time.UTC))
	assert.True(t, IsDue(task, time.Date(2025, 3, 2, 2, 0, 0, 0, time.UTC), time.UTC))
}

func TestCron_TakesPrecedenceOverRepeat(t *testing.T) {
	task := autoTask()
	task.CronExpr = "0 2 * * *"
	task.RepeatEnabled = true
	task.RepeatInterval = core.RepeatEvery30Seconds
	task.LastRun = timePtr(time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC))

	assert.False(t, IsDue(task, time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC), time.UTC))
}

func TestCron_Descriptor(t *testing.T) {
	checker, err := Cron("@hourly", time.UTC)
	require.NoError(t, err)

	task := autoTask()
	task.LastRun = timePtr(time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC))
	assert.True(t, checker.IsDue(task, time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)))
}

func TestCron_InvalidExpression(t *testing.T) {
	_, err := Cron("invalid cron", time.UTC)
	assert.True(t, errors.Is(err, core.ErrInvalidSchedule))
	assert.Error(t, ValidateCron("61 * * * *"))
	assert.NoError(t, ValidateCron("*/15 * * * *"))
}

// ──────────────────────────────────────────────────────────────────────────────
// ForTask
// ──────────────────────────────────────────────────────────────────────────────

func TestForTask_ManualModeNeverDue(t *testing.T) {
	task := autoTask()
	task.Mode = core.ModeManual
	task.RepeatEnabled = true
	task.RepeatInterval = core.RepeatEvery30Seconds

	assert.False(t, IsDue(task, time.Now(), time.UTC))
}

func TestForTask_NoTimingNeverDue(t *testing.T) {
	checker, err := ForTask(autoTask(), time.UTC)
	require.NoError(t, err)
	assert.False(t, checker.IsDue(autoTask(), time.Now()))

	_, ok := checker.Next(autoTask(), time.Now())
	assert.False(t, ok)
}

func TestForTask_InvalidFields(t *testing.T) {
	task := autoTask()
	task.ScheduleTime = strPtr("25:99")
	_, err := ForTask(task, time.UTC)
	assert.True(t, errors.Is(err, core.ErrInvalidSchedule))
	assert.False(t, IsDue(task, time.Now(), time.UTC))

	task = autoTask()
	task.RepeatEnabled = true
	task.RepeatInterval = core.RepeatInterval("fortnightly")
	_, err = ForTask(task, time.UTC)
	assert.True(t, errors.Is(err, core.ErrInvalidSchedule))
}

func TestParseClock(t *testing.T) {
	h, m, s, err := ParseClock("17:05:09")
	require.NoError(t, err)
	assert.Equal(t, []int{17, 5, 9}, []int{h, m, s})

	h, m, s, err = ParseClock(" 08:00 ")
	require.NoError(t, err)
	assert.Equal(t, []int{8, 0, 0}, []int{h, m, s})

	_, _, _, err = ParseClock("8am")
	assert.Error(t, err)
}

func TestDueCheckerInterface(t *testing.T) {
	var _ DueChecker = Never()                         //nolint:staticcheck // interface conformance check
	var _ DueChecker = Interval(time.Minute, nil)      //nolint:staticcheck // interface conformance check
	var _ DueChecker = OneTime(time.Now())             //nolint:staticcheck // interface conformance check
	var _ DueChecker = DailyAt(9, 0, 0, time.UTC)      //nolint:staticcheck // interface conformance check
}
