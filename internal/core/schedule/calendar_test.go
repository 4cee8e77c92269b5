package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestParseDate(t *testing.T) {
	t.Run("Valid Date", func(t *testing.T) {
		d, err := ParseDate("2024-01-14")
		require.NoError(t, err)
		assert.Equal(t, Date{Year: 2024, Month: time.January, Day: 14}, d)
		assert.Equal(t, "2024-01-14", d.String())
	})

	t.Run("Invalid Format", func(t *testing.T) {
		_, err := ParseDate("14/01/2024")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("Nonsense Input", func(t *testing.T) {
		_, err := ParseDate("not-a-date")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestLoadLocation(t *testing.T) {
	t.Run("Valid Identifier", func(t *testing.T) {
		loc, err := LoadLocation("America/New_York")
		require.NoError(t, err)
		assert.Equal(t, "America/New_York", loc.String())
	})

	t.Run("Invalid Identifier", func(t *testing.T) {
		_, err := LoadLocation("Mars/Olympus_Mons")
		assert.ErrorIs(t, err, ErrInvalidTimezone)
	})

	t.Run("Empty Identifier", func(t *testing.T) {
		// time.LoadLocation("") would return UTC; an empty identifier must be
		// rejected so callers fall back to the configured default instead.
		_, err := LoadLocation("")
		assert.ErrorIs(t, err, ErrInvalidTimezone)
	})
}

func TestToday(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	tokyo := mustLoad(t, "Asia/Tokyo")

	// 2024-01-15 04:30 UTC is still the evening of Jan 14 in New York but
	// already the afternoon of Jan 15 in Tokyo.
	instant := time.Date(2024, 1, 15, 4, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-14", Today(instant, ny).String())
	assert.Equal(t, "2024-01-15", Today(instant, tokyo).String())
}

func TestDayBounds(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	t.Run("Regular Day", func(t *testing.T) {
		start, end := DayBounds(Date{2024, time.January, 14}, ny)

		assert.Equal(t, time.Date(2024, 1, 14, 5, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC), end)
	})

	t.Run("Spring Forward Day Is 23 Hours", func(t *testing.T) {
		// 2024-03-10: New York jumps from EST (UTC-5) to EDT (UTC-4).
		start, end := DayBounds(Date{2024, time.March, 10}, ny)

		assert.Equal(t, time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2024, 3, 11, 4, 0, 0, 0, time.UTC), end)
		assert.Equal(t, 23*time.Hour, end.Sub(start))
	})

	t.Run("Fall Back Day Is 25 Hours", func(t *testing.T) {
		start, end := DayBounds(Date{2024, time.November, 3}, ny)

		assert.Equal(t, 25*time.Hour, end.Sub(start))
	})

	t.Run("Half Open Window", func(t *testing.T) {
		start, end := DayBounds(Date{2024, time.January, 14}, ny)

		inside := func(x time.Time) bool {
			return !x.Before(start) && x.Before(end)
		}

		assert.True(t, inside(end.Add(-time.Millisecond)), "23:59:59.999 local belongs to the day")
		assert.False(t, inside(end), "the boundary instant belongs to the next day")
	})
}

func TestWeekBounds(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	t.Run("Monday Start", func(t *testing.T) {
		// 2024-01-10 is a Wednesday; the Monday-based week runs Jan 8 to Jan 15.
		start, end := WeekBounds(Date{2024, time.January, 10}, time.Monday, ny)

		assert.Equal(t, time.Date(2024, 1, 8, 5, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC), end)
	})

	t.Run("Sunday Start", func(t *testing.T) {
		start, _ := WeekBounds(Date{2024, time.January, 10}, time.Sunday, ny)

		assert.Equal(t, time.Date(2024, 1, 7, 5, 0, 0, 0, time.UTC), start)
	})

	t.Run("Date On Week Start Day", func(t *testing.T) {
		// Jan 8 is itself a Monday; the week starts on it, not a week earlier.
		start, _ := WeekBounds(Date{2024, time.January, 8}, time.Monday, ny)

		assert.Equal(t, time.Date(2024, 1, 8, 5, 0, 0, 0, time.UTC), start)
	})

	t.Run("Week Crossing Spring Forward", func(t *testing.T) {
		// The week of 2024-03-04 contains the DST jump on Mar 10. Both ends
		// stay on local midnight, so the week is 167 hours long.
		start, end := WeekBounds(Date{2024, time.March, 6}, time.Monday, ny)

		assert.Equal(t, time.Date(2024, 3, 4, 5, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2024, 3, 11, 4, 0, 0, 0, time.UTC), end)
		assert.Equal(t, 167*time.Hour, end.Sub(start))
	})

	t.Run("Week End Boundary Excluded", func(t *testing.T) {
		_, end := WeekBounds(Date{2024, time.January, 10}, time.Monday, ny)

		justInside := end.Add(-time.Millisecond)
		assert.True(t, justInside.Before(end))

		nextStart, _ := WeekBounds(Date{2024, time.January, 15}, time.Monday, ny)
		assert.Equal(t, end, nextStart, "one week's exclusive end is the next week's start")
	})
}

func TestDateHelpers(t *testing.T) {
	t.Run("Weekday", func(t *testing.T) {
		assert.Equal(t, time.Sunday, Date{2024, time.January, 14}.Weekday())
		assert.Equal(t, time.Monday, Date{2024, time.January, 15}.Weekday())
	})

	t.Run("AddDays Across Month End", func(t *testing.T) {
		d := Date{2024, time.January, 30}.AddDays(3)
		assert.Equal(t, "2024-02-02", d.String())
	})

	t.Run("AddDays Negative", func(t *testing.T) {
		d := Date{2024, time.March, 1}.AddDays(-1)
		assert.Equal(t, "2024-02-29", d.String(), "2024 is a leap year")
	})
}
