package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrGoalNotFound     = errors.New("goal not found")
	ErrGoalConflict     = errors.New("goal version conflict")
	ErrActivityNotFound = errors.New("activity not found")
	ErrUnauthorized     = errors.New("unauthorized access")
)

type GoalRepository interface {
	// Create persists a new goal definition in the storage.
	Create(ctx context.Context, goal *Goal) error

	// GetByID retrieves a goal by its unique identifier.
	GetByID(ctx context.Context, id string) (*Goal, error)

	// ListByHomeschool retrieves all active goals belonging to a homeschool.
	ListByHomeschool(ctx context.Context, homeschoolID string) ([]*Goal, error)

	// Update modifies the state of an existing goal.
	Update(ctx context.Context, goal *Goal) error

	// Delete performs a Soft Delete on the goal.
	Delete(ctx context.Context, id string) error

	// UpdateLastRecorded stores the most recent activity timestamp hint,
	// maintained by the day-audit worker after each write.
	UpdateLastRecorded(ctx context.Context, id string, at time.Time) error
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	GetByID(ctx context.Context, id string) (*Activity, error)
	ListByHomeschool(ctx context.Context, homeschoolID string) ([]*Activity, error)
	Update(ctx context.Context, activity *Activity) error
	Delete(ctx context.Context, id string) error
}

type PersonRepository interface {
	Create(ctx context.Context, person *Person) error
	GetByID(ctx context.Context, id string) (*Person, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Person, error)
	ListByHomeschool(ctx context.Context, homeschoolID string) ([]*Person, error)
}
