package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jdziat/hris-replica/pkg/core"
)

// DueChecker decides whether a task should fire at now.
type DueChecker interface {
	IsDue(task *core.ScheduleTask, now time.Time) bool
	// Next returns the earliest instant at or after now when the task becomes due.
	Next(task *core.ScheduleTask, now time.Time) (time.Time, bool)
}

// never is used for manual-only tasks.
type never struct{}

// Never returns a checker that is never due.
func Never() DueChecker { return never{} }

func (never) IsDue(*core.ScheduleTask, time.Time) bool { return false }

func (never) Next(*core.ScheduleTask, time.Time) (time.Time, bool) { return time.Time{}, false }

// intervalSchedule fires when the interval has elapsed since last_run.
type intervalSchedule struct {
	every time.Duration
	gate  *time.Time
}

// Interval creates a fixed-interval checker. A non-nil gate delays the first
// run of a task that has never run.
func Interval(every time.Duration, gate *time.Time) DueChecker {
	return &intervalSchedule{every: every, gate: gate}
}

func (s *intervalSchedule) IsDue(task *core.ScheduleTask, now time.Time) bool {
	if task.LastRun == nil {
		return s.gate == nil || !now.Before(*s.gate)
	}
	return now.Sub(*task.LastRun) >= s.every
}

func (s *intervalSchedule) Next(task *core.ScheduleTask, now time.Time) (time.Time, bool) {
	if task.LastRun == nil {
		if s.gate != nil && now.Before(*s.gate) {
			return *s.gate, true
		}
		return now, true
	}
	next := task.LastRun.Add(s.every)
	if next.Before(now) {
		return now, true
	}
	return next, true
}

// oneTimeSchedule fires once at a fixed instant.
type oneTimeSchedule struct {
	at time.Time
}

// OneTime creates a checker that fires once at the given instant.
func OneTime(at time.Time) DueChecker {
	return &oneTimeSchedule{at: at}
}

func (s *oneTimeSchedule) IsDue(task *core.ScheduleTask, now time.Time) bool {
	if now.Before(s.at) {
		return false
	}
	return task.LastRun == nil || task.LastRun.Before(s.at)
}

func (s *oneTimeSchedule) Next(task *core.ScheduleTask, now time.Time) (time.Time, bool) {
	if task.LastRun != nil && !task.LastRun.Before(s.at) {
		return time.Time{}, false
	}
	if now.After(s.at) {
		return now, true
	}
	return s.at, true
}

// dailySchedule fires once a day at a time of day.
type dailySchedule struct {
	hour   int
	minute int
	second int
	loc    *time.Location
}

// DailyAt creates a checker that fires every day at hour:minute:second in loc.
func DailyAt(hour, minute, second int, loc *time.Location) DueChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &dailySchedule{hour: hour, minute: minute, second: second, loc: loc}
}

func (s *dailySchedule) today(now time.Time) time.Time {
	local := now.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, s.second, 0, s.loc)
}

func (s *dailySchedule) IsDue(task *core.ScheduleTask, now time.Time) bool {
	instant := s.today(now)
	if now.Before(instant) {
		return false
	}
	return task.LastRun == nil || task.LastRun.Before(instant)
}

func (s *dailySchedule) Next(task *core.ScheduleTask, now time.Time) (time.Time, bool) {
	if s.IsDue(task, now) {
		return now, true
	}
	instant := s.today(now)
	if !now.Before(instant) {
		instant = instant.AddDate(0, 0, 1)
	}
	return instant, true
}

// cronSchedule wraps a cron expression.
type cronSchedule struct {
	schedule cron.Schedule
	loc      *time.Location
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cron creates a checker from a five-field cron expression evaluated in loc.
func Cron(expr string, loc *time.Location) (DueChecker, error) {
	parsed, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: cron %q: %v", core.ErrInvalidSchedule, expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &cronSchedule{schedule: parsed, loc: loc}, nil
}

// reference is the instant cron fire times are counted from: the last run, or
// the task's creation for a task that has never run.
func (s *cronSchedule) reference(task *core.ScheduleTask, now time.Time) time.Time {
	if task.LastRun != nil {
		return *task.LastRun
	}
	if !task.CreatedAt.IsZero() {
		return task.CreatedAt
	}
	return now
}

func (s *cronSchedule) IsDue(task *core.ScheduleTask, now time.Time) bool {
	next := s.schedule.Next(s.reference(task, now).In(s.loc))
	return !now.Before(next)
}

func (s *cronSchedule) Next(task *core.ScheduleTask, now time.Time) (time.Time, bool) {
	next := s.schedule.Next(s.reference(task, now).In(s.loc))
	if next.Before(now) {
		return now, true
	}
	return next, true
}

// ForTask picks the checker matching a task's timing fields. Precedence:
// manual mode, cron expression, repeat interval, one-time date+time,
// daily time-of-day, never.
func ForTask(task *core.ScheduleTask, loc *time.Location) (DueChecker, error) {
	if loc == nil {
		loc = time.UTC
	}
	if task.Mode == core.ModeManual {
		return Never(), nil
	}
	if expr := strings.TrimSpace(task.CronExpr); expr != "" {
		return Cron(expr, loc)
	}

	hasDate := task.ScheduleDate != nil && strings.TrimSpace(*task.ScheduleDate) != ""
	hasTime := task.ScheduleTime != nil && strings.TrimSpace(*task.ScheduleTime) != ""

	if task.Repeats() {
		if !task.RepeatInterval.Valid() || task.RepeatInterval.Seconds() == 0 {
			return nil, fmt.Errorf("%w: repeat interval %q", core.ErrInvalidSchedule, task.RepeatInterval)
		}
		var gate *time.Time
		if hasDate && hasTime {
			at, err := ParseInstant(*task.ScheduleDate, *task.ScheduleTime, loc)
			if err != nil {
				return nil, err
			}
			gate = &at
		}
		return Interval(task.RepeatInterval.Duration(), gate), nil
	}

	if hasDate && hasTime {
		at, err := ParseInstant(*task.ScheduleDate, *task.ScheduleTime, loc)
		if err != nil {
			return nil, err
		}
		return OneTime(at), nil
	}

	if hasTime {
		h, m, s, err := ParseClock(*task.ScheduleTime)
		if err != nil {
			return nil, err
		}
		return DailyAt(h, m, s, loc), nil
	}

	return Never(), nil
}

// IsDue is a convenience wrapper around ForTask. Tasks with unusable timing
// fields are never due.
func IsDue(task *core.ScheduleTask, now time.Time, loc *time.Location) bool {
	checker, err := ForTask(task, loc)
	if err != nil {
		return false
	}
	return checker.IsDue(task, now)
}

// ParseClock parses HH:MM or HH:MM:SS.
func ParseClock(v string) (hour, minute, second int, err error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, perr := time.Parse(layout, v); perr == nil {
			return t.Hour(), t.Minute(), t.Second(), nil
		}
	}
	return 0, 0, 0, fmt.Errorf("%w: time %q", core.ErrInvalidSchedule, v)
}

// ParseInstant combines a YYYY-MM-DD date and a clock time in loc.
func ParseInstant(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(core.DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", core.ErrInvalidSchedule, date)
	}
	h, m, s, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, loc), nil
}

// ValidateCron reports whether expr is an accepted cron expression.
func ValidateCron(expr string) error {
	_, err := Cron(expr, time.UTC)
	return err
}
