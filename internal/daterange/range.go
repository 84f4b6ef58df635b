// Package daterange implements the publication date range selector: named
// presets relative to an injected clock, day-granular ranges and the
// validation applied before a range is committed.
package daterange

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Clock is the source of "now" for presets and the default upper bound.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// ClockIn reads the wall clock in loc.
func ClockIn(loc *time.Location) Clock {
	return ClockFunc(func() time.Time { return time.Now().In(loc) })
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// Day truncates t to midnight of its calendar date in t's location.
func Day(t time.Time) time.Time {
	return dayIn(t, t.Location())
}

func dayIn(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar date.
// Two zero times are the same day; a zero and a non-zero time are not.
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() == b.IsZero()
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// ParseDay parses a YYYY-MM-DD date as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return d, nil
}

// Range is a publication date interval at day granularity.
// A zero From or To means that end is absent.
type Range struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether neither end is set.
func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// IsPartial reports whether only the start has been chosen.
func (r Range) IsPartial() bool {
	return !r.From.IsZero() && r.To.IsZero()
}

// IsSingleDay reports whether the range collapses to one date.
func (r Range) IsSingleDay() bool {
	return !r.From.IsZero() && !r.To.IsZero() && SameDay(r.From, r.To)
}

// SpanDays returns to − from in calendar days, or 0 when an end is absent.
func (r Range) SpanDays() int {
	if r.From.IsZero() || r.To.IsZero() {
		return 0
	}
	return DaysBetween(r.From, r.To)
}

// Contains reports whether t falls within the range, both ends inclusive.
// t is compared by its calendar date in the range's location, so an instant
// late in the evening west of UTC still belongs to that local day.
// An absent end does not bound that side.
func (r Range) Contains(t time.Time) bool {
	d := Day(t.In(r.Location()))
	if !r.From.IsZero() && DaysBetween(r.From, d) < 0 {
		return false
	}
	if !r.To.IsZero() && DaysBetween(d, r.To) < 0 {
		return false
	}
	return true
}

// Location returns the location the range's days are expressed in.
func (r Range) Location() *time.Location {
	switch {
	case !r.From.IsZero():
		return r.From.Location()
	case !r.To.IsZero():
		return r.To.Location()
	}
	return time.UTC
}

// In returns the range with the same calendar dates expressed in loc.
func (r Range) In(loc *time.Location) Range {
	return Range{From: dayIn(r.From, loc), To: dayIn(r.To, loc)}
}

// Bounds returns the half-open instant interval [from 00:00, to+1 00:00)
// covered by the range. A zero bound means that side is open.
func (r Range) Bounds() (start, end time.Time) {
	if !r.From.IsZero() {
		start = r.From
	}
	if !r.To.IsZero() {
		end = r.To.AddDate(0, 0, 1)
	}
	return start, end
}

// Equal compares both ends by calendar date.
func (r Range) Equal(o Range) bool {
	return SameDay(r.From, o.From) && SameDay(r.To, o.To)
}

// String renders the range as YYYY-MM-DD..YYYY-MM-DD.
func (r Range) String() string {
	return formatDay(r.From) + ".." + formatDay(r.To)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dayLayout)
}
