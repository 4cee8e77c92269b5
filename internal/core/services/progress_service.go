package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/core/schedule"
	"github.com/hearthschool/goaltrack/internal/logger"
)

// ProgressService computes per-goal, per-student progress snapshots and
// classified goal lists. All aggregation is a pure, single-pass computation
// over already-fetched instances; only the repository reads suspend.
type ProgressService struct {
	goalRepo     domain.GoalRepository
	activityRepo domain.ActivityRepository
	instanceRepo domain.InstanceRepository

	loc          *time.Location
	weekStartDay time.Weekday
}

func NewProgressService(goalRepo domain.GoalRepository, activityRepo domain.ActivityRepository, instanceRepo domain.InstanceRepository, loc *time.Location, weekStartDay time.Weekday) *ProgressService {
	return &ProgressService{
		goalRepo:     goalRepo,
		activityRepo: activityRepo,
		instanceRepo: instanceRepo,
		loc:          loc,
		weekStartDay: weekStartDay,
	}
}

// AggregateProgress buckets instances into today and this-week windows and
// computes the derived snapshot. Pure: the same inputs always produce the
// same snapshot, and the caller's slice is never mutated. Both windows come
// from the same "now", so an instance cannot be double-counted across them.
func AggregateProgress(goal *domain.Goal, studentID string, instances []*domain.ActivityInstance, now time.Time, loc *time.Location, weekStartDay time.Weekday) domain.Snapshot {
	today := schedule.Today(now, loc)
	dayStart, dayEnd := schedule.DayBounds(today, loc)
	weekStart, weekEnd := schedule.WeekBounds(today, weekStartDay, loc)

	var snap domain.Snapshot
	var latest *domain.ActivityInstance

	for _, inst := range instances {
		if inst.GoalID != goal.ID || inst.StudentID != studentID {
			continue
		}

		d := inst.Date
		if !d.Before(dayStart) && d.Before(dayEnd) {
			snap.TodayCount++
			if inst.Duration != nil {
				snap.TodayMinutes += *inst.Duration
			}
		}

		if !d.Before(weekStart) && d.Before(weekEnd) {
			snap.WeekCount++
			if inst.Duration != nil {
				snap.WeekMinutes += *inst.Duration
			}
			// Ties on Date resolve to the later element; instances arrive in
			// creation order, so that is the most recently recorded one.
			if latest == nil || !inst.Date.Before(latest.Date) {
				latest = inst
			}
		}
	}

	if latest != nil {
		if latest.EndingPercentage != nil {
			snap.LatestPercentage = latest.EndingPercentage
		} else if latest.PercentageCompleted != nil {
			snap.LatestPercentage = latest.PercentageCompleted
		}
		if latest.CountCompleted != nil {
			snap.LatestCount = latest.CountCompleted
		}
	}

	return snap
}

// GoalProgress is one row of a classified goal list.
type GoalProgress struct {
	Goal        *domain.Goal     `json:"goal"`
	Activity    *domain.Activity `json:"activity,omitempty"`
	DisplayName string           `json:"display_name"`
	Snapshot    domain.Snapshot  `json:"snapshot"`
	Status      domain.Status    `json:"status"`
}

// StudentOverview returns the student's visible goals with fresh snapshots
// and statuses, sorted with the shared display comparator.
func (s *ProgressService) StudentOverview(ctx context.Context, homeschoolID, studentID string, now time.Time) ([]GoalProgress, error) {
	goals, err := s.goalRepo.ListByHomeschool(ctx, homeschoolID)
	if err != nil {
		return nil, err
	}

	var visible []*domain.Goal
	var goalIDs []string
	for _, g := range goals {
		if len(g.StudentIDs) == 0 {
			// A goal with no students is meaningless; keep it out of every
			// aggregate.
			continue
		}
		if g.VisibleTo(studentID, now) {
			visible = append(visible, g)
			goalIDs = append(goalIDs, g.ID)
		}
	}

	if len(visible) == 0 {
		return []GoalProgress{}, nil
	}

	instances, err := s.instanceRepo.List(ctx, domain.InstanceFilter{
		StudentID: studentID,
		GoalIDIn:  goalIDs,
	})
	if err != nil {
		return nil, err
	}

	activities, err := s.activityRepo.ListByHomeschool(ctx, homeschoolID)
	if err != nil {
		return nil, err
	}
	activityByID := make(map[string]*domain.Activity, len(activities))
	for _, a := range activities {
		activityByID[a.ID] = a
	}

	rows := make([]GoalProgress, 0, len(visible))
	for _, g := range visible {
		snap := AggregateProgress(g, studentID, instances, now, s.loc, s.weekStartDay)
		activity := activityByID[g.ActivityID]
		rows = append(rows, GoalProgress{
			Goal:        g,
			Activity:    activity,
			DisplayName: domain.DisplayName(g, activity),
			Snapshot:    snap,
			Status:      domain.Classify(g, snap),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return domain.LessForDisplay(rows[i].Status, rows[i].DisplayName, rows[j].Status, rows[j].DisplayName)
	})

	return rows, nil
}

// ComputeProgress aggregates and classifies a single goal for one student.
func (s *ProgressService) ComputeProgress(ctx context.Context, goalID, studentID string, now time.Time) (domain.Snapshot, domain.Status, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return domain.Snapshot{}, "", err
	}
	if !goal.HasStudent(studentID) {
		return domain.Snapshot{}, "", domain.ErrUnauthorized
	}

	instances, err := s.instanceRepo.List(ctx, domain.InstanceFilter{
		GoalID:    goalID,
		StudentID: studentID,
	})
	if err != nil {
		return domain.Snapshot{}, "", err
	}

	snap := AggregateProgress(goal, studentID, instances, now, s.loc, s.weekStartDay)
	return snap, domain.Classify(goal, snap), nil
}

// CalendarView describes the resolved local calendar for a timezone and
// week-start convention.
type CalendarView struct {
	Today     string    `json:"today"`
	DayStart  time.Time `json:"day_start"`
	DayEnd    time.Time `json:"day_end"`
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
}

// ResolveCalendar computes today's local date plus day and week bounds. An
// unrecognized timezone falls back to the configured default; the view keeps
// rendering instead of crashing.
func (s *ProgressService) ResolveCalendar(now time.Time, tzName string, weekStartDay time.Weekday) CalendarView {
	loc := s.loc
	if tzName != "" {
		override, err := schedule.LoadLocation(tzName)
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidTimezone) {
				logger.Log.WithField("timezone", tzName).Warn("Unknown timezone, using configured default")
			}
		} else {
			loc = override
		}
	}

	today := schedule.Today(now, loc)
	dayStart, dayEnd := schedule.DayBounds(today, loc)
	weekStart, weekEnd := schedule.WeekBounds(today, weekStartDay, loc)

	return CalendarView{
		Today:     today.String(),
		DayStart:  dayStart,
		DayEnd:    dayEnd,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
	}
}

// Location exposes the configured timezone for callers that convert user
// input on the write path.
func (s *ProgressService) Location() *time.Location {
	return s.loc
}

// WeekStartDay exposes the configured week-start convention.
func (s *ProgressService) WeekStartDay() time.Weekday {
	return s.weekStartDay
}
