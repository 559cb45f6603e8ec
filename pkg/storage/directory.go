package storage

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/jdziat/hris-replica/pkg/core"
)

// ActiveEmployees returns the active replica directory ordered by employee ID.
func (s *GormStorage) ActiveEmployees(ctx context.Context) ([]core.Employee, error) {
	var emps []core.Employee
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("employee_id ASC").
		Find(&emps).Error
	return emps, err
}

// exists reports whether a row matching the condition is present. It only
// feeds the inserted/updated counters; the write that follows is atomic.
func (s *GormStorage) exists(ctx context.Context, model any, cond string, arg any) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(model).Where(cond, arg).Count(&count).Error
	return count > 0, err
}

// UpsertEmployee writes an employee and reports whether it was new.
func (s *GormStorage) UpsertEmployee(ctx context.Context, emp *core.Employee) (bool, error) {
	found, err := s.exists(ctx, &core.Employee{}, "employee_id = ?", emp.EmployeeID)
	if err != nil {
		return false, err
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "designation", "division_code", "section_code", "active", "synced_at", "updated_at",
			}),
		}).
		Create(emp).Error
	return !found, err
}

// DeactivateEmployeesExcept marks every active employee not in keep as inactive.
// An empty keep list is ignored so a blank upstream response cannot wipe the directory.
func (s *GormStorage) DeactivateEmployeesExcept(ctx context.Context, keep []string) (int64, error) {
	if len(keep) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Model(&core.Employee{}).
		Where("active = ? AND employee_id NOT IN ?", true, keep).
		Update("active", false)
	return result.RowsAffected, result.Error
}

// UpsertDivision writes a division and reports whether it was new.
func (s *GormStorage) UpsertDivision(ctx context.Context, d *core.Division) (bool, error) {
	found, err := s.exists(ctx, &core.Division{}, "code = ?", d.Code)
	if err != nil {
		return false, err
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "synced_at", "updated_at"}),
		}).
		Create(d).Error
	return !found, err
}

// UpsertSection writes a section and reports whether it was new.
func (s *GormStorage) UpsertSection(ctx context.Context, sec *core.Section) (bool, error) {
	found, err := s.exists(ctx, &core.Section{}, "code = ?", sec.Code)
	if err != nil {
		return false, err
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "division_code", "synced_at", "updated_at"}),
		}).
		Create(sec).Error
	return !found, err
}

// UpsertSubSection writes a sub-section keyed by code and reports whether it was new.
func (s *GormStorage) UpsertSubSection(ctx context.Context, sub *core.SubSection) (bool, error) {
	found, err := s.exists(ctx, &core.SubSection{}, "code = ?", sub.Code)
	if err != nil {
		return false, err
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "section_code", "synced_at", "updated_at"}),
		}).
		Create(sub).Error
	return !found, err
}

// LoadOrgUnits loads the whole hierarchy plus active transfers, newest transfer first.
func (s *GormStorage) LoadOrgUnits(ctx context.Context) (*core.OrgUnits, error) {
	units := &core.OrgUnits{}
	db := s.db.WithContext(ctx)
	if err := db.Order("code ASC").Find(&units.Divisions).Error; err != nil {
		return nil, err
	}
	if err := db.Order("code ASC").Find(&units.Sections).Error; err != nil {
		return nil, err
	}
	if err := db.Order("id ASC").Find(&units.SubSections).Error; err != nil {
		return nil, err
	}
	err := db.Where("active = ?", true).
		Order("effective_date DESC, id DESC").
		Find(&units.Transfers).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

// AddTransfer records a sub-section transfer. Transfers are managed by
// administration; the engine only reads them.
func (s *GormStorage) AddTransfer(ctx context.Context, tr *core.SubSectionTransfer) error {
	return s.db.WithContext(ctx).Create(tr).Error
}

// IndexedEmployeeIDs returns every employee already present in the index.
func (s *GormStorage) IndexedEmployeeIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&core.EmployeeIndexEntry{}).Pluck("employee_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// InsertIndexEntry inserts the entry unless the employee is already indexed.
func (s *GormStorage) InsertIndexEntry(ctx context.Context, entry *core.EmployeeIndexEntry) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
