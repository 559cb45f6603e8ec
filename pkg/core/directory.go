package core

import "time"

// Division is a top-level organization unit.
type Division struct {
	Code      string `gorm:"primaryKey;size:50"`
	Name      string `gorm:"size:255"`
	SyncedAt  time.Time
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Section belongs to a division.
type Section struct {
	Code         string `gorm:"primaryKey;size:50"`
	Name         string `gorm:"size:255"`
	DivisionCode string `gorm:"size:50;index"`
	SyncedAt     time.Time
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// SubSection belongs to a section.
type SubSection struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"size:50;uniqueIndex"`
	Name        string `gorm:"size:255"`
	SectionCode string `gorm:"size:50;index"`
	SyncedAt    time.Time
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// SubSectionTransfer assigns an employee to a sub-section outside the HRIS hierarchy.
type SubSectionTransfer struct {
	ID            uint   `gorm:"primaryKey"`
	EmployeeID    string `gorm:"size:50;index"`
	SubSectionID  uint   `gorm:"index"`
	Active        bool   `gorm:"index"`
	EffectiveDate string `gorm:"size:10"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// Employee is the replica of one HRIS employee record.
type Employee struct {
	EmployeeID   string `gorm:"primaryKey;size:50"`
	Name         string `gorm:"size:255"`
	Designation  string `gorm:"size:255"`
	DivisionCode string `gorm:"size:50;index"`
	SectionCode  string `gorm:"size:50;index"`
	Active       bool   `gorm:"index"`
	SyncedAt     time.Time
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// EmployeeIndexEntry is the flat division/section/sub-section/employee join.
// Rows are insert-only.
type EmployeeIndexEntry struct {
	EmployeeID     string `gorm:"primaryKey;size:50"`
	EmployeeName   string `gorm:"size:255"`
	Designation    string `gorm:"size:255"`
	DivisionCode   string `gorm:"size:50;index"`
	DivisionName   string `gorm:"size:255"`
	SectionCode    string `gorm:"size:50;index"`
	SectionName    string `gorm:"size:255"`
	SubSectionID   *uint  `gorm:"index"`
	SubSectionName string `gorm:"size:255"`
	IndexedAt      time.Time
}

// TableName keeps the index table name stable for the reporting layer.
func (EmployeeIndexEntry) TableName() string {
	return "employee_index"
}

// OrgUnits is the in-memory view of the hierarchy used by the index builder.
type OrgUnits struct {
	Divisions   []Division
	Sections    []Section
	SubSections []SubSection
	Transfers   []SubSectionTransfer
}
