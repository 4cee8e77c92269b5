package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGoalNameTooLong       = errors.New("goal name is too long (max 100 chars)")
	ErrGoalNoActivity        = errors.New("goal must reference an activity")
	ErrGoalNoStudents        = errors.New("goal must be assigned to at least one student")
	ErrGoalInvalidHomeschool = errors.New("invalid homeschool id")
	ErrInvalidTimesPerWeek   = errors.New("times per week must be positive")
	ErrInvalidMinutes        = errors.New("minutes per session must be positive")
	ErrInvalidPercentage     = errors.New("percentage values must be between 0 and 100")
	ErrInvalidProgressTarget = errors.New("progress count target must be positive")
	ErrGoalAlreadyCompleted  = errors.New("goal already completed for this student")
	ErrStudentNotAssigned    = errors.New("student is not assigned to this goal")
)

const MaxGoalNameLen = 100

// Completion marks a goal finished for one student. The goal stops being
// surfaced to that student after the completion date.
type Completion struct {
	CompletionDate time.Time `json:"completion_date"`
	Grade          string    `json:"grade,omitempty"`
}

type Goal struct {
	ID           string   `json:"id"`
	HomeschoolID string   `json:"homeschool_id"`
	ActivityID   string   `json:"activity_id"`
	Name         string   `json:"name,omitempty"`
	StudentIDs   []string `json:"student_ids"`

	TimesPerWeek            *int     `json:"times_per_week,omitempty"`
	MinutesPerSession       *float64 `json:"minutes_per_session,omitempty"`
	DailyPercentageIncrease *float64 `json:"daily_percentage_increase,omitempty"`
	PercentageGoal          *float64 `json:"percentage_goal,omitempty"`
	ProgressCount           *int     `json:"progress_count,omitempty"`

	StartDate   *time.Time            `json:"start_date,omitempty"`
	Completions map[string]Completion `json:"completions,omitempty"`

	LastRecordedAt *time.Time `json:"last_recorded_at,omitempty"`

	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func normalizeStudentIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var unique []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	sort.Strings(unique)
	return unique
}

func validateTargets(timesPerWeek *int, minutesPerSession, dailyIncrease, percentageGoal *float64, progressCount *int) error {
	if timesPerWeek != nil && *timesPerWeek < 1 {
		return ErrInvalidTimesPerWeek
	}
	if minutesPerSession != nil && *minutesPerSession <= 0 {
		return ErrInvalidMinutes
	}
	if dailyIncrease != nil && (*dailyIncrease <= 0 || *dailyIncrease > 100) {
		return ErrInvalidPercentage
	}
	if percentageGoal != nil && (*percentageGoal < 0 || *percentageGoal > 100) {
		return ErrInvalidPercentage
	}
	if progressCount != nil && *progressCount < 1 {
		return ErrInvalidProgressTarget
	}
	return nil
}

func NewGoal(homeschoolID, activityID, name string, studentIDs []string) (*Goal, error) {
	if strings.TrimSpace(homeschoolID) == "" {
		return nil, ErrGoalInvalidHomeschool
	}
	if strings.TrimSpace(activityID) == "" {
		return nil, ErrGoalNoActivity
	}

	name = strings.TrimSpace(name)
	if len(name) > MaxGoalNameLen {
		return nil, ErrGoalNameTooLong
	}

	students := normalizeStudentIDs(studentIDs)
	if len(students) == 0 {
		return nil, ErrGoalNoStudents
	}

	now := time.Now().UTC()

	return &Goal{
		ID:           uuid.NewString(),
		HomeschoolID: homeschoolID,
		ActivityID:   activityID,
		Name:         name,
		StudentIDs:   students,
		Completions:  make(map[string]Completion),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SetTargets replaces the goal's weekly/session/metric targets. A nil value
// clears the corresponding target.
func (g *Goal) SetTargets(timesPerWeek *int, minutesPerSession, dailyIncrease, percentageGoal *float64, progressCount *int) error {
	if err := validateTargets(timesPerWeek, minutesPerSession, dailyIncrease, percentageGoal, progressCount); err != nil {
		return err
	}

	g.TimesPerWeek = timesPerWeek
	g.MinutesPerSession = minutesPerSession
	g.DailyPercentageIncrease = dailyIncrease
	g.PercentageGoal = percentageGoal
	g.ProgressCount = progressCount
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func (g *Goal) Rename(name string) error {
	name = strings.TrimSpace(name)
	if len(name) > MaxGoalNameLen {
		return ErrGoalNameTooLong
	}
	g.Name = name
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func (g *Goal) AssignStudents(studentIDs []string) error {
	students := normalizeStudentIDs(studentIDs)
	if len(students) == 0 {
		return ErrGoalNoStudents
	}
	g.StudentIDs = students
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func (g *Goal) HasStudent(studentID string) bool {
	for _, id := range g.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// CompleteFor closes the goal for one student as of the given date.
func (g *Goal) CompleteFor(studentID string, date time.Time, grade string) error {
	if !g.HasStudent(studentID) {
		return ErrStudentNotAssigned
	}
	if g.Completions == nil {
		g.Completions = make(map[string]Completion)
	}
	if _, done := g.Completions[studentID]; done {
		return ErrGoalAlreadyCompleted
	}

	g.Completions[studentID] = Completion{CompletionDate: date.UTC(), Grade: grade}
	g.UpdatedAt = time.Now().UTC()
	return nil
}

// VisibleTo reports whether the goal should be surfaced to the student at the
// given moment. The gate runs before aggregation and classification: a goal
// is hidden before its start date and after the student's completion date.
func (g *Goal) VisibleTo(studentID string, now time.Time) bool {
	if !g.HasStudent(studentID) {
		return false
	}
	if g.StartDate != nil && now.Before(*g.StartDate) {
		return false
	}
	if c, done := g.Completions[studentID]; done && now.After(c.CompletionDate) {
		return false
	}
	return true
}
