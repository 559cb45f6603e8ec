package pipeline

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdziat/hris-replica/pkg/core"
)

// Env carries the ambient dependencies shared by every pipeline.
type Env struct {
	Clock    core.Clock
	Location *time.Location
	Log      logrus.FieldLogger
}

func (e Env) now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock.Now()
}

func (e Env) loc() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

func (e Env) logger(module string, req core.RunRequest) logrus.FieldLogger {
	l := e.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithFields(logrus.Fields{"module": module, "task_id": req.TaskID, "triggered_by": req.TriggeredBy})
}

// today returns the single-day range for the current civil date.
func (e Env) today() core.DateRange {
	now := e.now()
	return core.RangeFor(now, now, e.loc())
}

// lastDays returns [today-days, today].
func (e Env) lastDays(days int) core.DateRange {
	now := e.now()
	return core.RangeFor(now.AddDate(0, 0, -days), now, e.loc())
}

func newResult() *core.RunResult {
	return &core.RunResult{Details: map[string]any{}}
}
