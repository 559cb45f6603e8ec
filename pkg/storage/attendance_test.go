package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/hris-replica/pkg/core"
)

func attendance(emp, date, div, sec, status string, hours float64, late int) *core.AttendanceSyncRecord {
	return &core.AttendanceSyncRecord{
		EmployeeID:     emp,
		AttendanceDate: date,
		DivisionCode:   div,
		SectionCode:    sec,
		FirstPunchTime: "08:00:00",
		LastPunchTime:  "17:00:00",
		PunchCount:     2,
		Status:         status,
		WorkingHours:   decimal.NewFromFloat(hours),
		LateMinutes:    late,
		DataSource:     core.SourcePunch,
		SyncedAt:       time.Now(),
	}
}

func TestUpsertAttendance_UpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.UpsertAttendance(ctx, attendance("E1", "2025-03-01", "1", "10", core.AttendancePresent, 0, 0)))
	rec := attendance("E1", "2025-03-01", "1", "10", "late", 8.5, 12)
	rec.LastPunchTime = "18:00:00"
	require.NoError(t, s.UpsertAttendance(ctx, rec))

	var rows []core.AttendanceSyncRecord
	require.NoError(t, s.DB().Find(&rows).Error)
	require.Len(t, rows, 1, "natural key must stay unique")
	assert.Equal(t, "late", rows[0].Status)
	assert.Equal(t, "18:00:00", rows[0].LastPunchTime)
	assert.Equal(t, 12, rows[0].LateMinutes)
	assert.True(t, decimal.NewFromFloat(8.5).Equal(rows[0].WorkingHours))
}

func TestExistingAttendanceKeys_RespectsRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.UpsertAttendance(ctx, attendance("E1", "2025-03-01", "1", "10", core.AttendancePresent, 0, 0)))
	require.NoError(t, s.UpsertAttendance(ctx, attendance("E2", "2025-03-02", "1", "10", core.AttendancePresent, 0, 0)))
	require.NoError(t, s.UpsertAttendance(ctx, attendance("E1", "2025-03-05", "1", "10", core.AttendancePresent, 0, 0)))

	keys, err := s.ExistingAttendanceKeys(ctx, core.DateRange{Start: "2025-03-01", End: "2025-03-02"})
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, core.AttendanceKey{EmployeeID: "E1", Date: "2025-03-01"})
	assert.Contains(t, keys, core.AttendanceKey{EmployeeID: "E2", Date: "2025-03-02"})
}

func TestRecomputeDailyStats_ReplacesAndRemovesStale(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	day := core.DateRange{Start: "2025-03-01", End: "2025-03-01"}
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertAttendance(ctx, attendance("E1", "2025-03-01", "1", "10", core.AttendancePresent, 8, 0)))
	require.NoError(t, s.UpsertAttendance(ctx, attendance("E2", "2025-03-01", "1", "10", core.AttendancePresent, 7.5, 15)))
	require.NoError(t, s.UpsertAttendance(ctx, attendance("E3", "2025-03-01", "1", "10", core.AttendanceAbsent, 0, 0)))
	require.NoError(t, s.UpsertAttendance(ctx, attendance("E4", "2025-03-01", "2", "20", "leave", 0, 0)))

	// A stale group from an earlier run that no longer has records.
	require.NoError(t, s.DB().Create(&core.DailyStat{Date: "2025-03-01", DivisionCode: "9", SectionCode: "99", TotalRecords: 5}).Error)

	groups, err := s.RecomputeDailyStats(ctx, day, now)
	require.NoError(t, err)
	assert.Equal(t, 2, groups)

	// Recomputing is not additive.
	groups, err = s.RecomputeDailyStats(ctx, day, now)
	require.NoError(t, err)
	assert.Equal(t, 2, groups)

	var stats []core.DailyStat
	require.NoError(t, s.DB().Order("division_code").Find(&stats).Error)
	require.Len(t, stats, 2)

	first := stats[0]
	assert.Equal(t, "1", first.DivisionCode)
	assert.Equal(t, 3, first.TotalRecords)
	assert.Equal(t, 2, first.PresentCount)
	assert.Equal(t, 1, first.LateCount)
	assert.Equal(t, 1, first.AbsentCount)
	assert.Equal(t, 0, first.OtherCount)
	assert.Equal(t, 15, first.TotalLateMinutes)
	assert.True(t, decimal.NewFromFloat(15.5).Equal(first.TotalWorkingHours), first.TotalWorkingHours.String())

	second := stats[1]
	assert.Equal(t, "2", second.DivisionCode)
	assert.Equal(t, 1, second.OtherCount)
}

func TestInvalidateReportCache_Intersecting(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	entries := []*core.ReportCacheEntry{
		{CacheKey: "feb", StartDate: "2025-02-01", EndDate: "2025-02-28"},
		{CacheKey: "feb-mar", StartDate: "2025-02-15", EndDate: "2025-03-01"},
		{CacheKey: "mar", StartDate: "2025-03-01", EndDate: "2025-03-31"},
		{CacheKey: "apr", StartDate: "2025-04-01", EndDate: "2025-04-30"},
	}
	for _, e := range entries {
		require.NoError(t, s.PutReportCache(ctx, e))
	}

	n, err := s.InvalidateReportCache(ctx, &core.DateRange{Start: "2025-03-01", End: "2025-03-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var left []string
	require.NoError(t, s.DB().Model(&core.ReportCacheEntry{}).Order("cache_key").Pluck("cache_key", &left).Error)
	assert.Equal(t, []string{"apr", "feb"}, left)
}

func TestInvalidateReportCache_NilRangeClearsAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.PutReportCache(ctx, &core.ReportCacheEntry{CacheKey: "a", StartDate: "2025-01-01", EndDate: "2025-01-31"}))
	require.NoError(t, s.PutReportCache(ctx, &core.ReportCacheEntry{CacheKey: "b", StartDate: "2025-02-01", EndDate: "2025-02-28"}))

	n, err := s.InvalidateReportCache(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
