package pipeline

import (
	"context"

	"github.com/jdziat/hris-replica/pkg/core"
)

// Rollup recomputes DailyStat rows for a range, today by default.
type Rollup struct {
	Attendance core.AttendanceStore
	Env        Env
}

// Run implements core.Pipeline.
func (p *Rollup) Run(ctx context.Context, req core.RunRequest) (*core.RunResult, error) {
	start := p.Env.now()
	rng := p.Env.today()
	if req.Range != nil {
		rng = *req.Range
	}
	log := p.Env.logger("rollup", req).WithField("range", rng.String())

	groups, err := p.Attendance.RecomputeDailyStats(ctx, rng, p.Env.now())
	if err != nil {
		return nil, core.Fatal("daily stats rollup", err)
	}
	res := newResult()
	res.Processed = groups
	res.Updated = groups
	res.Details["range"] = rng.String()
	res.Duration = p.Env.now().Sub(start)
	log.WithField("groups", groups).Info("daily stats rollup finished")
	return res, nil
}

// CacheInvalidation deletes cached reports intersecting the task range, or
// the whole cache when the task has no range.
type CacheInvalidation struct {
	Attendance core.AttendanceStore
	Env        Env
}

// Run implements core.Pipeline.
func (p *CacheInvalidation) Run(ctx context.Context, req core.RunRequest) (*core.RunResult, error) {
	start := p.Env.now()
	log := p.Env.logger("cache_invalidation", req)

	deleted, err := p.Attendance.InvalidateReportCache(ctx, req.Range)
	if err != nil {
		return nil, core.Fatal("report cache", err)
	}
	res := newResult()
	res.Processed = int(deleted)
	if req.Range != nil {
		res.Details["range"] = req.Range.String()
	} else {
		res.Details["range"] = "all"
	}
	res.Duration = p.Env.now().Sub(start)
	log.WithField("deleted", deleted).Info("report cache invalidated")
	return res, nil
}
