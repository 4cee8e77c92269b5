package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAmbiguousLocalTime is returned together with a best-effort instant
	// when a local time cannot be pinned down even after fold/gap handling.
	// Callers log it and keep the instant; it never blocks a write.
	ErrAmbiguousLocalTime = errors.New("ambiguous or invalid local time")

	ErrInvalidTime = errors.New("invalid time string (expected HH:MM)")
)

const timeLayout = "15:04"

// Real-world UTC offsets range from -14h to +12h. No timezone uses finer than
// half-hour granularity except a handful of :45 zones, which fall through to
// the normalization path below.
const (
	minOffsetMinutes = -14 * 60
	maxOffsetMinutes = 12 * 60
	offsetStep       = 30
)

// DateToInstant converts a local calendar day into its canonical stored
// instant: local midnight in loc, as UTC. This is the value stored in an
// ActivityInstance's Date field.
func DateToInstant(dateStr string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	start, _ := DayBounds(d, loc)
	return start, nil
}

// InstantToLocalDate is the display inverse of DateToInstant. The two round
// trip: InstantToLocalDate(DateToInstant(d, loc), loc) == d for any valid d.
func InstantToLocalDate(instant time.Time, loc *time.Location) string {
	return instant.In(loc).Format(dateLayout)
}

// LocalDateTimeToInstant converts a user-entered local date+time into its UTC
// instant. It searches the full range of real-world UTC offsets for the one
// whose projection into loc reproduces the input fields exactly:
//
//   - exactly one offset matches: the normal case;
//   - two offsets match (DST fold): the local time occurred twice, and the
//     standard-time reading wins over the daylight one;
//   - no offset matches (DST gap, or a :45 zone): the construction below
//     normalizes a nonexistent local time forward past the gap.
func LocalDateTimeToInstant(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	tod, err := time.Parse(timeLayout, timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, timeStr)
	}
	hour, minute := tod.Hour(), tod.Minute()

	naive := time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)

	var matches []time.Time
	for off := minOffsetMinutes; off <= maxOffsetMinutes; off += offsetStep {
		candidate := naive.Add(-time.Duration(off) * time.Minute)
		local := candidate.In(loc)
		if local.Year() == d.Year && local.Month() == d.Month && local.Day() == d.Day &&
			local.Hour() == hour && local.Minute() == minute {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		// Gap (or an offset finer than the search grid): let the timezone
		// database normalize to the next valid instant.
		return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc).UTC(), nil
	}

	for _, m := range matches {
		if !m.In(loc).IsDST() {
			return m, nil
		}
	}

	// Every matching reading is daylight time. Should not happen for modern
	// timezones; hand back the earliest occurrence and flag it.
	earliest := matches[0]
	for _, m := range matches[1:] {
		if m.Before(earliest) {
			earliest = m
		}
	}
	return earliest, ErrAmbiguousLocalTime
}

// InstantToLocalTime formats the clock reading of an instant in loc, for
// echoing start/end times back to forms.
func InstantToLocalTime(instant time.Time, loc *time.Location) string {
	return instant.In(loc).Format(timeLayout)
}
