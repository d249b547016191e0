// Package daterange models half-open calendar date intervals [Start, End).
// Dates carry no time component: every value is normalized to UTC midnight.
package daterange

import (
	"errors"
	"fmt"
	"time"
)

const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("check-in must be before check-out")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
)

type Range struct {
	start time.Time
	end   time.Time
}

// Date drops the time component, keeping the calendar day as seen in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func New(start, end time.Time) (Range, error) {
	start, end = Date(start), Date(end)
	if !start.Before(end) {
		return Range{}, ErrInvalidRange
	}
	return Range{start: start, end: end}, nil
}

// MustNew panics on an invalid range; for ranges already known to be valid.
func MustNew(start, end time.Time) Range {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func Parse(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return New(s, e)
}

func (r Range) Start() time.Time { return r.start }
func (r Range) End() time.Time   { return r.end }

func (r Range) IsZero() bool {
	return r.start.IsZero() && r.end.IsZero()
}

// Nights is the number of nights between check-in and check-out.
func (r Range) Nights() int {
	return int(r.end.Sub(r.start).Hours() / 24)
}

// Overlaps uses half-open semantics: a range ending on the day another starts does not overlap it.
func (r Range) Overlaps(other Range) bool {
	return r.start.Before(other.end) && r.end.After(other.start)
}

func (r Range) Contains(day time.Time) bool {
	day = Date(day)
	return !day.Before(r.start) && day.Before(r.end)
}

func (r Range) Equal(other Range) bool {
	return r.start.Equal(other.start) && r.end.Equal(other.end)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.start.Format(Layout), r.end.Format(Layout))
}
