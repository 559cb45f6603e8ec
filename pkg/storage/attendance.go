package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdziat/hris-replica/pkg/core"
)

var attendanceUpdateColumns = []string{
	"employee_name", "designation", "division_code", "division_name",
	"section_code", "section_name", "first_punch_time", "last_punch_time",
	"punch_count", "status", "working_hours", "overtime_hours", "late_minutes",
	"shift", "data_source", "synced_at", "updated_at",
}

// ExistingAttendanceKeys returns the natural keys already stored for a range.
func (s *GormStorage) ExistingAttendanceKeys(ctx context.Context, r core.DateRange) (map[core.AttendanceKey]struct{}, error) {
	var rows []struct {
		EmployeeID     string
		AttendanceDate string
	}
	err := s.db.WithContext(ctx).
		Model(&core.AttendanceSyncRecord{}).
		Select("employee_id, attendance_date").
		Where("attendance_date BETWEEN ? AND ?", r.Start, r.End).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[core.AttendanceKey]struct{}, len(rows))
	for _, row := range rows {
		keys[core.AttendanceKey{EmployeeID: row.EmployeeID, Date: row.AttendanceDate}] = struct{}{}
	}
	return keys, nil
}

// UpsertAttendance inserts the record or overwrites the row with the same
// (employee_id, attendance_date) in a single statement.
func (s *GormStorage) UpsertAttendance(ctx context.Context, rec *core.AttendanceSyncRecord) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "attendance_date"}},
			DoUpdates: clause.AssignmentColumns(attendanceUpdateColumns),
		}).
		Create(rec).Error
}

type dailyStatKey struct {
	Date, Division, Section string
}

// RecomputeDailyStats rebuilds the rollup rows for every date in the range.
// Existing rows are replaced, groups that no longer have records are removed.
func (s *GormStorage) RecomputeDailyStats(ctx context.Context, r core.DateRange, now time.Time) (int, error) {
	var rows []struct {
		AttendanceDate     string
		DivisionCode       string
		SectionCode        string
		TotalRecords       int
		PresentCount       int
		LateCount          int
		AbsentCount        int
		TotalWorkingHours  decimal.Decimal
		TotalOvertimeHours decimal.Decimal
		TotalLateMinutes   int
	}
	err := s.db.WithContext(ctx).
		Model(&core.AttendanceSyncRecord{}).
		Select(`attendance_date, division_code, section_code,
			COUNT(*) AS total_records,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS present_count,
			SUM(CASE WHEN late_minutes > 0 THEN 1 ELSE 0 END) AS late_count,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS absent_count,
			COALESCE(SUM(working_hours), 0) AS total_working_hours,
			COALESCE(SUM(overtime_hours), 0) AS total_overtime_hours,
			COALESCE(SUM(late_minutes), 0) AS total_late_minutes`,
			core.AttendancePresent, core.AttendanceAbsent).
		Where("attendance_date BETWEEN ? AND ?", r.Start, r.End).
		Group("attendance_date, division_code, section_code").
		Find(&rows).Error
	if err != nil {
		return 0, err
	}

	fresh := make(map[dailyStatKey]struct{}, len(rows))
	for _, row := range rows {
		stat := &core.DailyStat{
			Date:               row.AttendanceDate,
			DivisionCode:       row.DivisionCode,
			SectionCode:        row.SectionCode,
			TotalRecords:       row.TotalRecords,
			PresentCount:       row.PresentCount,
			LateCount:          row.LateCount,
			AbsentCount:        row.AbsentCount,
			OtherCount:         row.TotalRecords - row.PresentCount - row.AbsentCount,
			TotalWorkingHours:  row.TotalWorkingHours,
			TotalOvertimeHours: row.TotalOvertimeHours,
			TotalLateMinutes:   row.TotalLateMinutes,
			ComputedAt:         now,
		}
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "date"}, {Name: "division_code"}, {Name: "section_code"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"total_records", "present_count", "late_count", "absent_count",
					"other_count", "total_working_hours", "total_overtime_hours",
					"total_late_minutes", "computed_at",
				}),
			}).
			Create(stat).Error
		if err != nil {
			return 0, err
		}
		fresh[dailyStatKey{row.AttendanceDate, row.DivisionCode, row.SectionCode}] = struct{}{}
	}

	return len(rows), s.deleteStaleStats(ctx, r, fresh)
}

func (s *GormStorage) deleteStaleStats(ctx context.Context, r core.DateRange, fresh map[dailyStatKey]struct{}) error {
	var existing []core.DailyStat
	err := s.db.WithContext(ctx).
		Select("id, date, division_code, section_code").
		Where("date BETWEEN ? AND ?", r.Start, r.End).
		Find(&existing).Error
	if err != nil {
		return err
	}
	var stale []uint
	for _, st := range existing {
		if _, ok := fresh[dailyStatKey{st.Date, st.DivisionCode, st.SectionCode}]; !ok {
			stale = append(stale, st.ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&core.DailyStat{}, stale).Error
}

// InvalidateReportCache deletes cached reports whose range intersects r.
// A nil range clears the whole cache.
func (s *GormStorage) InvalidateReportCache(ctx context.Context, r *core.DateRange) (int64, error) {
	q := s.db.WithContext(ctx)
	if r == nil {
		q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
	} else {
		q = q.Where("start_date <= ? AND end_date >= ?", r.End, r.Start)
	}
	result := q.Delete(&core.ReportCacheEntry{})
	return result.RowsAffected, result.Error
}

// PutReportCache stores a report snapshot; the reporting layer owns its contents.
func (s *GormStorage) PutReportCache(ctx context.Context, entry *core.ReportCacheEntry) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"start_date", "end_date", "payload"}),
		}).
		Create(entry).Error
}
