// Package period holds the calendar-day helpers shared by task logs, rosters and reports.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/curaious/timesheet/internal/perrors"
)

const DayLayout = "2006-01-02"

// AllTime labels an open bound.
const AllTime = "All time"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD or an RFC3339 timestamp and returns the calendar day.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DayLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", raw)
	}
	return Day(t), nil
}

// Range is an inclusive window of calendar days. A nil bound is open.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// NewRange parses optional bounds. Empty strings leave the bound open.
func NewRange(start, end string) (Range, error) {
	var r Range
	if start != "" {
		t, err := ParseDay(start)
		if err != nil {
			return Range{}, perrors.NewValidationError("startDate", err.Error())
		}
		r.Start = &t
	}
	if end != "" {
		t, err := ParseDay(end)
		if err != nil {
			return Range{}, perrors.NewValidationError("endDate", err.Error())
		}
		r.End = &t
	}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

func Between(start, end time.Time) Range {
	s, e := Day(start), Day(end)
	return Range{Start: &s, End: &e}
}

func (r Range) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return perrors.NewValidationError("", "startDate cannot be after endDate")
	}
	return nil
}

func (r Range) Contains(day time.Time) bool {
	day = Day(day)
	if r.Start != nil && day.Before(Day(*r.Start)) {
		return false
	}
	if r.End != nil && day.After(Day(*r.End)) {
		return false
	}
	return true
}

func (r Range) IsOpen() bool {
	return r.Start == nil && r.End == nil
}

// Labels renders both bounds, using AllTime for open ones.
func (r Range) Labels() (string, string) {
	start, end := AllTime, AllTime
	if r.Start != nil {
		start = r.Start.Format(DayLayout)
	}
	if r.End != nil {
		end = r.End.Format(DayLayout)
	}
	return start, end
}

// SQL appends the range predicates on column to an existing condition list.
func (r Range) SQL(column string, conditions []string, args []interface{}) ([]string, []interface{}) {
	if r.Start != nil {
		args = append(args, Day(*r.Start))
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if r.End != nil {
		args = append(args, Day(*r.End))
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", column, len(args)))
	}
	return conditions, args
}
