package domain

import "strings"

// Status classifies a goal's progress for display. The order is total and
// shared by every view that lists goals: today's overview, the student
// self-view and the kiosk display all sort with the same comparator.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProgressWeek   Status = "progress-week"
	StatusDoneToday      Status = "done-today"
	StatusWeeklyComplete Status = "weekly-complete"
)

func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusProgressWeek:
		return 2
	case StatusDoneToday:
		return 3
	case StatusWeeklyComplete:
		return 4
	}
	return 0
}

// Snapshot is the derived per-goal, per-student progress for "today" and
// "this week". It is recomputed on every read and never persisted: a cached
// snapshot would go stale the moment the timezone or week-start setting
// changes.
type Snapshot struct {
	TodayCount   int     `json:"today_count"`
	WeekCount    int     `json:"week_count"`
	TodayMinutes float64 `json:"today_minutes"`
	WeekMinutes  float64 `json:"week_minutes"`

	LatestPercentage *float64 `json:"latest_percentage,omitempty"`
	LatestCount      *int     `json:"latest_count,omitempty"`
}

// Classify maps an aggregated snapshot to a status. The decision order is the
// business rule, first match wins. Weekly completion uses >= throughout.
func Classify(goal *Goal, snap Snapshot) Status {
	if goal.TimesPerWeek != nil && snap.WeekCount >= *goal.TimesPerWeek {
		return StatusWeeklyComplete
	}
	if snap.TodayCount > 0 {
		return StatusDoneToday
	}
	if snap.WeekCount > 0 {
		return StatusProgressWeek
	}
	return StatusPending
}

// DisplayName is the name used for sorting and rendering: the goal's own name
// when present, otherwise the activity name.
func DisplayName(g *Goal, a *Activity) string {
	if g != nil && g.Name != "" {
		return g.Name
	}
	if a != nil {
		return a.Name
	}
	return ""
}

// LessForDisplay is the single shared sort comparator for goal lists.
// Lower-ranked statuses sort first; ties break on case-insensitive name.
func LessForDisplay(s1 Status, name1 string, s2 Status, name2 string) bool {
	if s1.Rank() != s2.Rank() {
		return s1.Rank() < s2.Rank()
	}
	return strings.ToLower(name1) < strings.ToLower(name2)
}
