package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/hris-replica/pkg/core"
)

func TestRollup_DefaultsToToday(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Date(2025, 3, 2, 23, 0, 0, 0, time.UTC)
	for _, date := range []string{"2025-03-01", "2025-03-02"} {
		require.NoError(t, s.UpsertAttendance(ctx, &core.AttendanceSyncRecord{
			EmployeeID: "E1", AttendanceDate: date, DivisionCode: "1", Status: core.AttendancePresent,
			WorkingHours: decimal.NewFromInt(8), PunchCount: 2,
		}))
	}

	p := &Rollup{Attendance: s, Env: testEnv(now)}
	res, err := p.Run(ctx, core.RunRequest{TaskID: core.TaskDailyStatsRollup})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, "2025-03-02..2025-03-02", res.Details["range"])

	var stats []core.DailyStat
	require.NoError(t, s.DB().Find(&stats).Error)
	require.Len(t, stats, 1)
	assert.Equal(t, "2025-03-02", stats[0].Date)

	res, err = p.Run(ctx, core.RunRequest{Range: &core.DateRange{Start: "2025-03-01", End: "2025-03-02"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
}

func TestCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.PutReportCache(ctx, &core.ReportCacheEntry{CacheKey: "a", StartDate: "2025-01-01", EndDate: "2025-01-31"}))
	require.NoError(t, s.PutReportCache(ctx, &core.ReportCacheEntry{CacheKey: "b", StartDate: "2025-02-01", EndDate: "2025-02-28"}))
	p := &CacheInvalidation{Attendance: s, Env: testEnv(time.Now())}

	res, err := p.Run(ctx, core.RunRequest{Range: dayRange("2025-01-15")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	res, err = p.Run(ctx, core.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, "all", res.Details["range"])
}
