package hris

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names in organization records.
const (
	FieldOrgCode       = "code"
	FieldOrgName       = "name"
	FieldOrgLevel      = "level"
	FieldOrgParentCode = "parent_code"
)

// Field names in employee records.
const (
	FieldEmployeeID   = "employee_id"
	FieldEmployeeName = "name"
	FieldDesignation  = "designation"
	FieldDivisionCode = "division_code"
	FieldSectionCode  = "section_code"
	FieldActive       = "active"
)

// Organization levels.
const (
	LevelDivision   = 1
	LevelSection    = 2
	LevelSubSection = 3
)

// String returns the field as a trimmed string. Numbers are formatted
// without a fractional part when they are whole, since the HRIS sends some
// codes as JSON numbers.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Int returns the field as an int, or an error when it is missing or not numeric.
func (r Record) Int(field string) (int, error) {
	switch v := r[field].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", field, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("field %s: missing", field)
	default:
		return 0, fmt.Errorf("field %s: unexpected type %T", field, v)
	}
}

// Bool returns the field as a bool. Missing values yield def.
func (r Record) Bool(field string, def bool) bool {
	switch v := r[field].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return b
	default:
		return def
	}
}
