package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInstance = errors.New("invalid activity instance data")
)

// ActivityInstance is one recorded completion event for a goal/student pair.
// Date is the canonical instant for the intended local calendar day: local
// midnight in the homeschool's timezone, stored as UTC.
type ActivityInstance struct {
	ID        string `json:"id" db:"id"`
	GoalID    string `json:"goal_id" db:"goal_id"`
	StudentID string `json:"student_id" db:"student_id"`

	Date      time.Time  `json:"date" db:"date"`
	StartTime *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`
	Duration  *float64   `json:"duration,omitempty" db:"duration"`

	StartingPercentage  *float64 `json:"starting_percentage,omitempty" db:"starting_percentage"`
	EndingPercentage    *float64 `json:"ending_percentage,omitempty" db:"ending_percentage"`
	PercentageCompleted *float64 `json:"percentage_completed,omitempty" db:"percentage_completed"`
	CountCompleted      *int     `json:"count_completed,omitempty" db:"count_completed"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func NewActivityInstance(goalID, studentID string, date time.Time) *ActivityInstance {
	now := time.Now().UTC()

	return &ActivityInstance{
		GoalID:    goalID,
		StudentID: studentID,
		Date:      date.UTC(),

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (i *ActivityInstance) Validate() error {
	if strings.TrimSpace(i.GoalID) == "" {
		return fmt.Errorf("%w: goal_id is required", ErrInvalidInstance)
	}
	if strings.TrimSpace(i.StudentID) == "" {
		return fmt.Errorf("%w: student_id is required", ErrInvalidInstance)
	}
	if i.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInstance)
	}
	if i.Duration != nil && *i.Duration < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidInstance)
	}
	if i.StartTime != nil && i.EndTime != nil && i.EndTime.Before(*i.StartTime) {
		return fmt.Errorf("%w: end_time cannot be before start_time", ErrInvalidInstance)
	}
	for _, p := range []*float64{i.StartingPercentage, i.EndingPercentage, i.PercentageCompleted} {
		if p != nil && (*p < 0 || *p > 100) {
			return fmt.Errorf("%w: percentage values must be between 0 and 100", ErrInvalidInstance)
		}
	}
	if i.CountCompleted != nil && *i.CountCompleted < 0 {
		return fmt.Errorf("%w: count_completed cannot be negative", ErrInvalidInstance)
	}
	return nil
}
