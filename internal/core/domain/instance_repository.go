package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInstanceNotFound = errors.New("activity instance not found")
	ErrInstanceConflict = errors.New("activity instance version conflict")
)

// InstanceFilter selects activity instances with filter-only semantics: every
// non-zero field narrows the result. GoalIDIn is ignored when GoalID is set.
type InstanceFilter struct {
	GoalID    string
	StudentID string
	GoalIDIn  []string

	// Optional date-instant window on the canonical Date field.
	// Zero values mean unbounded. From is inclusive, To exclusive.
	From time.Time
	To   time.Time
}

type InstanceRepository interface {
	// Create persists a new activity instance.
	Create(ctx context.Context, instance *ActivityInstance) error

	// Update modifies an existing instance.
	// Implementations must handle Optimistic Locking (version check) to prevent data races.
	Update(ctx context.Context, instance *ActivityInstance) error

	// Delete performs a Soft Delete on the instance.
	// It requires studentID to ensure the caller actually owns the record being deleted.
	Delete(ctx context.Context, id string, studentID string) error

	// GetByID retrieves a single active (non-deleted) instance by its ID.
	GetByID(ctx context.Context, id string) (*ActivityInstance, error)

	// List retrieves active instances matching the filter, ordered by creation
	// time ascending so "earliest created" ties resolve deterministically.
	List(ctx context.Context, filter InstanceFilter) ([]*ActivityInstance, error)
}
