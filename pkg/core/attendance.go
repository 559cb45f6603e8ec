package core

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Attendance statuses written when no richer source says otherwise.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

// Provenance values for AttendanceSyncRecord.DataSource.
const (
	SourcePunch       = "punch"
	SourcePunchStatus = "punch+status"
)

// AttendanceSyncRecord is the canonical attendance fact for one employee and day.
type AttendanceSyncRecord struct {
	ID             uint            `gorm:"primaryKey"`
	EmployeeID     string          `gorm:"size:50;not null;uniqueIndex:idx_attendance_emp_date,priority:1"`
	AttendanceDate string          `gorm:"size:10;not null;uniqueIndex:idx_attendance_emp_date,priority:2;index"`
	EmployeeName   string          `gorm:"size:255"`
	Designation    string          `gorm:"size:255"`
	DivisionCode   string          `gorm:"size:50;index"`
	DivisionName   string          `gorm:"size:255"`
	SectionCode    string          `gorm:"size:50;index"`
	SectionName    string          `gorm:"size:255"`
	FirstPunchTime string          `gorm:"size:8"`
	LastPunchTime  string          `gorm:"size:8"`
	PunchCount     int             `gorm:"default:0"`
	Status         string          `gorm:"size:30;default:'present'"`
	WorkingHours   decimal.Decimal `gorm:"type:decimal(6,2);default:0"`
	OvertimeHours  decimal.Decimal `gorm:"type:decimal(6,2);default:0"`
	LateMinutes    int             `gorm:"default:0"`
	Shift          string          `gorm:"size:50"`
	DataSource     string          `gorm:"size:30"`
	SyncedAt       time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// AttendanceKey is the natural key of an attendance record.
type AttendanceKey struct {
	EmployeeID string
	Date       string
}

// Key returns the record's natural key.
func (r *AttendanceSyncRecord) Key() AttendanceKey {
	return AttendanceKey{EmployeeID: r.EmployeeID, Date: r.AttendanceDate}
}

// DailyStat is the per-day, per-section rollup of attendance records.
type DailyStat struct {
	ID                 uint            `gorm:"primaryKey"`
	Date               string          `gorm:"size:10;not null;uniqueIndex:idx_daily_stat_key,priority:1"`
	DivisionCode       string          `gorm:"size:50;not null;default:'';uniqueIndex:idx_daily_stat_key,priority:2"`
	SectionCode        string          `gorm:"size:50;not null;default:'';uniqueIndex:idx_daily_stat_key,priority:3"`
	TotalRecords       int             `gorm:"default:0"`
	PresentCount       int             `gorm:"default:0"`
	LateCount          int             `gorm:"default:0"`
	AbsentCount        int             `gorm:"default:0"`
	OtherCount         int             `gorm:"default:0"`
	TotalWorkingHours  decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	TotalOvertimeHours decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	TotalLateMinutes   int             `gorm:"default:0"`
	ComputedAt         time.Time
}

// ReportCacheEntry is a cached report snapshot for a date range.
type ReportCacheEntry struct {
	ID        uint           `gorm:"primaryKey"`
	CacheKey  string         `gorm:"size:255;uniqueIndex"`
	StartDate string         `gorm:"size:10;index"`
	EndDate   string         `gorm:"size:10;index"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

// PunchRecord is one raw biometric punch.
type PunchRecord struct {
	ID         uint   `gorm:"primaryKey"`
	EmployeeID string `gorm:"size:50;not null;index:idx_punch_emp_date,priority:1"`
	PunchDate  string `gorm:"size:10;not null;index:idx_punch_emp_date,priority:2;index"`
	PunchTime  string `gorm:"size:8;not null"`
	DeviceID   string `gorm:"size:50"`
}

// PunchGroup is the per (employee, date) aggregate of punches.
type PunchGroup struct {
	EmployeeID string
	PunchDate  string
	FirstPunch string
	LastPunch  string
	PunchCount int
}
