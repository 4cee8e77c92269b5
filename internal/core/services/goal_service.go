package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

type GoalService struct {
	repo         domain.GoalRepository
	activityRepo domain.ActivityRepository
}

func NewGoalService(repo domain.GoalRepository, activityRepo domain.ActivityRepository) *GoalService {
	return &GoalService{
		repo:         repo,
		activityRepo: activityRepo,
	}
}

type CreateGoalInput struct {
	HomeschoolID string
	ActivityID   string
	Name         string
	StudentIDs   []string

	TimesPerWeek            *int
	MinutesPerSession       *float64
	DailyPercentageIncrease *float64
	PercentageGoal          *float64
	ProgressCount           *int

	StartDate *time.Time
}

type UpdateGoalInput struct {
	ID           string
	HomeschoolID string
	Name         *string
	StudentIDs   []string

	TimesPerWeek            *int
	MinutesPerSession       *float64
	DailyPercentageIncrease *float64
	PercentageGoal          *float64
	ProgressCount           *int

	StartDate *time.Time
	Version   int
}

func (s *GoalService) Create(ctx context.Context, input CreateGoalInput) (*domain.Goal, error) {
	// The activity template must exist before a goal can point at it.
	if _, err := s.activityRepo.GetByID(ctx, input.ActivityID); err != nil {
		return nil, err
	}

	goal, err := domain.NewGoal(input.HomeschoolID, input.ActivityID, input.Name, input.StudentIDs)
	if err != nil {
		return nil, err
	}

	if err := goal.SetTargets(input.TimesPerWeek, input.MinutesPerSession, input.DailyPercentageIncrease, input.PercentageGoal, input.ProgressCount); err != nil {
		return nil, err
	}

	if input.StartDate != nil {
		utc := input.StartDate.UTC()
		goal.StartDate = &utc
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

func (s *GoalService) GetByID(ctx context.Context, id, homeschoolID string) (*domain.Goal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if goal.HomeschoolID != homeschoolID {
		return nil, domain.ErrGoalNotFound
	}
	return goal, nil
}

func (s *GoalService) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Goal, error) {
	return s.repo.ListByHomeschool(ctx, homeschoolID)
}

func (s *GoalService) Update(ctx context.Context, input UpdateGoalInput) (*domain.Goal, error) {
	goal, err := s.GetByID(ctx, input.ID, input.HomeschoolID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && goal.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrGoalConflict, input.Version, goal.Version)
	}

	if input.Name != nil {
		if err := goal.Rename(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.StudentIDs != nil {
		if err := goal.AssignStudents(input.StudentIDs); err != nil {
			return nil, err
		}
	}

	if err := goal.SetTargets(input.TimesPerWeek, input.MinutesPerSession, input.DailyPercentageIncrease, input.PercentageGoal, input.ProgressCount); err != nil {
		return nil, err
	}

	if input.StartDate != nil {
		utc := input.StartDate.UTC()
		goal.StartDate = &utc
	}

	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

// Complete closes a goal for one student; after the completion date the goal
// is no longer surfaced to them.
func (s *GoalService) Complete(ctx context.Context, goalID, homeschoolID, studentID string, date time.Time, grade string) (*domain.Goal, error) {
	goal, err := s.GetByID(ctx, goalID, homeschoolID)
	if err != nil {
		return nil, err
	}

	if err := goal.CompleteFor(studentID, date, grade); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, id, homeschoolID string) error {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if goal.HomeschoolID != homeschoolID {
		return domain.ErrGoalNotFound
	}

	return s.repo.Delete(ctx, id)
}
