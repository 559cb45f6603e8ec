package core

import (
	"fmt"
	"time"
)

// DateLayout is the civil-date format used for every stored date column.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of civil dates in DateLayout form.
type DateRange struct {
	Start string
	End   string
}

// ParseDateRange validates both ends and their order.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start %q", ErrInvalidDateRange, start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end %q", ErrInvalidDateRange, end)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, start, end)
	}
	return DateRange{Start: start, End: end}, nil
}

// RangeFor builds a range covering from..to in the given location.
func RangeFor(from, to time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	return DateRange{Start: from.In(loc).Format(DateLayout), End: to.In(loc).Format(DateLayout)}
}

// Days lists every date in the range, oldest first.
func (r DateRange) Days() []string {
	s, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return nil
	}
	e, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return nil
	}
	var days []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// Intersects reports whether two inclusive ranges overlap.
func (r DateRange) Intersects(o DateRange) bool {
	return r.Start <= o.End && o.Start <= r.End
}

func (r DateRange) String() string {
	return r.Start + ".." + r.End
}
