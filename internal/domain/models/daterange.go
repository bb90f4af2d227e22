package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

// ErrInvertedRange is returned when a range starts after it ends.
var ErrInvertedRange = errors.New("start date must not be after end date")

// DateRange is an inclusive range of UTC calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both ends to UTC midnight and checks Start <= End.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: TruncateDay(start), End: TruncateDay(end)}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvertedRange, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return r, nil
}

// SingleDay returns the range covering only day.
func SingleDay(day time.Time) DateRange {
	d := TruncateDay(day)
	return DateRange{Start: d, End: d}
}

// Days returns the number of calendar days in the range, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// StartDate returns Start formatted as YYYY-MM-DD.
func (r DateRange) StartDate() string { return r.Start.Format(DateLayout) }

// EndDate returns End formatted as YYYY-MM-DD.
func (r DateRange) EndDate() string { return r.End.Format(DateLayout) }

func (r DateRange) String() string {
	return r.StartDate() + ".." + r.EndDate()
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// TruncateDay drops the clock part of t, keeping its UTC calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
