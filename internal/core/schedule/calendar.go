// Package schedule resolves local calendar boundaries and canonical instants
// for an arbitrary IANA timezone. Everything here is pure: callers pass "now"
// in, nothing reads the host clock or host timezone.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimezone = errors.New("invalid timezone identifier")
	ErrInvalidDate     = errors.New("invalid date string (expected YYYY-MM-DD)")
)

// DefaultTimezone is used when no TIMEZONE is configured.
const DefaultTimezone = "America/New_York"

const dateLayout = "2006-01-02"

// Date is a local calendar date with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Weekday returns the day of week for the calendar date. Weekday is a property
// of the date itself, independent of any timezone.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// AddDays shifts the date by whole calendar days.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// LoadLocation resolves an IANA timezone identifier using real timezone rules.
// Callers must fall back to the configured default on ErrInvalidTimezone and
// never silently use the host-local zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// Today resolves an instant into the calendar date as seen in loc.
func Today(now time.Time, loc *time.Location) Date {
	local := now.In(loc)
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// DayBounds returns the half-open UTC window [local midnight, next local
// midnight) for the date in loc. The exclusive end keeps an instance landing
// exactly on the next boundary out of today's bucket. AddDate keeps the next
// midnight on the local calendar even across a DST transition.
func DayBounds(d Date, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// WeekBounds returns the half-open UTC window for the week of d, where
// weekStartDay follows time.Weekday numbering (Sunday = 0). The bounds are
// computed on calendar dates, not elapsed milliseconds, so a week spanning a
// DST transition still runs midnight to midnight.
func WeekBounds(d Date, weekStartDay time.Weekday, loc *time.Location) (time.Time, time.Time) {
	offset := (int(d.Weekday()) - int(weekStartDay) + 7) % 7
	first := d.AddDays(-offset)

	start := time.Date(first.Year, first.Month, first.Day, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 7)
	return start.UTC(), end.UTC()
}
