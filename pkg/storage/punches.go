package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/jdziat/hris-replica/pkg/core"
)

// GormPunchSource reads the raw biometric punch table, which usually lives in
// its own database.
type GormPunchSource struct {
	db *gorm.DB
}

// NewGormPunchSource creates a punch source over db.
func NewGormPunchSource(db *gorm.DB) *GormPunchSource {
	return &GormPunchSource{db: db}
}

// Migrate creates the punch table. Production punch stores are owned by the
// device vendor; this exists for local setups and tests.
func (p *GormPunchSource) Migrate(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&core.PunchRecord{})
}

// RecordPunch appends a raw punch.
func (p *GormPunchSource) RecordPunch(ctx context.Context, punch *core.PunchRecord) error {
	return p.db.WithContext(ctx).Create(punch).Error
}

// GroupPunches returns MIN/MAX/COUNT of punch times per (employee, date).
func (p *GormPunchSource) GroupPunches(ctx context.Context, r core.DateRange) ([]core.PunchGroup, error) {
	var groups []core.PunchGroup
	err := p.db.WithContext(ctx).
		Model(&core.PunchRecord{}).
		Select(`employee_id, punch_date,
			MIN(punch_time) AS first_punch,
			MAX(punch_time) AS last_punch,
			COUNT(*) AS punch_count`).
		Where("punch_date BETWEEN ? AND ?", r.Start, r.End).
		Group("employee_id, punch_date").
		Order("punch_date ASC, employee_id ASC").
		Scan(&groups).Error
	return groups, err
}
