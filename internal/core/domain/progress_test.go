package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

func weeklyGoal(t *testing.T, timesPerWeek int) *domain.Goal {
	t.Helper()
	g, err := domain.NewGoal("hs1", "act1", "Reading", []string{"s1"})
	assert.Nil(t, err)
	assert.Nil(t, g.SetTargets(intPtr(timesPerWeek), nil, nil, nil, nil))
	return g
}

func TestClassify(t *testing.T) {
	t.Run("Pending when nothing recorded", func(t *testing.T) {
		g := weeklyGoal(t, 3)
		assert.Equal(t, domain.StatusPending, domain.Classify(g, domain.Snapshot{}))
	})

	t.Run("Progress week when recorded earlier this week", func(t *testing.T) {
		g := weeklyGoal(t, 3)
		snap := domain.Snapshot{WeekCount: 1}
		assert.Equal(t, domain.StatusProgressWeek, domain.Classify(g, snap))
	})

	t.Run("Done today outranks progress week", func(t *testing.T) {
		g := weeklyGoal(t, 3)
		snap := domain.Snapshot{TodayCount: 1, WeekCount: 2}
		assert.Equal(t, domain.StatusDoneToday, domain.Classify(g, snap))
	})

	t.Run("Weekly complete at exactly the target", func(t *testing.T) {
		g := weeklyGoal(t, 3)
		snap := domain.Snapshot{TodayCount: 1, WeekCount: 3}
		assert.Equal(t, domain.StatusWeeklyComplete, domain.Classify(g, snap))
	})

	t.Run("Weekly complete above the target", func(t *testing.T) {
		// Overshooting the target must never demote the status.
		g := weeklyGoal(t, 3)
		snap := domain.Snapshot{TodayCount: 2, WeekCount: 5}
		assert.Equal(t, domain.StatusWeeklyComplete, domain.Classify(g, snap))
	})

	t.Run("No weekly target never reaches weekly complete", func(t *testing.T) {
		g, err := domain.NewGoal("hs1", "act1", "Reading", []string{"s1"})
		assert.Nil(t, err)

		snap := domain.Snapshot{TodayCount: 1, WeekCount: 10}
		assert.Equal(t, domain.StatusDoneToday, domain.Classify(g, snap))
	})

	t.Run("Idempotent: same snapshot always classifies the same", func(t *testing.T) {
		g := weeklyGoal(t, 2)
		snap := domain.Snapshot{TodayCount: 1, WeekCount: 2}

		first := domain.Classify(g, snap)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, domain.Classify(g, snap))
		}
	})

	t.Run("Monotonic: adding records never lowers the rank", func(t *testing.T) {
		g := weeklyGoal(t, 3)

		prevRank := 0
		for week := 0; week <= 5; week++ {
			snap := domain.Snapshot{WeekCount: week}
			if week > 0 {
				snap.TodayCount = 1
			}
			rank := domain.Classify(g, snap).Rank()
			assert.GreaterOrEqual(t, rank, prevRank, "rank dropped at WeekCount=%d", week)
			prevRank = rank
		}
	})
}

func TestStatusRank(t *testing.T) {
	assert.Equal(t, 1, domain.StatusPending.Rank())
	assert.Equal(t, 2, domain.StatusProgressWeek.Rank())
	assert.Equal(t, 3, domain.StatusDoneToday.Rank())
	assert.Equal(t, 4, domain.StatusWeeklyComplete.Rank())
	assert.Equal(t, 0, domain.Status("bogus").Rank())
}

func TestDisplayName(t *testing.T) {
	activity, err := domain.NewActivity("hs1", "Piano", false, true, false)
	assert.Nil(t, err)

	t.Run("Goal name wins", func(t *testing.T) {
		g, _ := domain.NewGoal("hs1", activity.ID, "Scales Practice", []string{"s1"})
		assert.Equal(t, "Scales Practice", domain.DisplayName(g, activity))
	})

	t.Run("Falls back to activity name", func(t *testing.T) {
		g, _ := domain.NewGoal("hs1", activity.ID, "", []string{"s1"})
		assert.Equal(t, "Piano", domain.DisplayName(g, activity))
	})

	t.Run("Empty when both missing", func(t *testing.T) {
		g, _ := domain.NewGoal("hs1", activity.ID, "", []string{"s1"})
		assert.Equal(t, "", domain.DisplayName(g, nil))
	})
}

func TestLessForDisplay(t *testing.T) {
	t.Run("Orders by status rank first", func(t *testing.T) {
		assert.True(t, domain.LessForDisplay(domain.StatusPending, "zzz", domain.StatusWeeklyComplete, "aaa"))
		assert.False(t, domain.LessForDisplay(domain.StatusDoneToday, "aaa", domain.StatusProgressWeek, "zzz"))
	})

	t.Run("Ties break on case-insensitive name", func(t *testing.T) {
		assert.True(t, domain.LessForDisplay(domain.StatusPending, "apple", domain.StatusPending, "Banana"))
		assert.False(t, domain.LessForDisplay(domain.StatusPending, "banana", domain.StatusPending, "APPLE"))
	})

	t.Run("Equal entries are not less", func(t *testing.T) {
		assert.False(t, domain.LessForDisplay(domain.StatusPending, "same", domain.StatusPending, "same"))
	})
}
