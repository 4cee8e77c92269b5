package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

// The in-memory repositories store and hand out shallow copies, matching the
// postgres adapters' fresh-row semantics: a caller mutating a fetched entity
// never changes stored state until it commits through Update.
type InMemoryGoalRepository struct {
	store map[string]*domain.Goal

	mu sync.RWMutex
}

func NewInMemoryGoalRepository() *InMemoryGoalRepository {
	return &InMemoryGoalRepository{
		store: make(map[string]*domain.Goal),
	}
}

func (r *InMemoryGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *goal
	r.store[goal.ID] = &clone
	return nil
}

func (r *InMemoryGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goal, ok := r.store[id]
	if !ok || goal.DeletedAt != nil {
		return nil, domain.ErrGoalNotFound
	}
	clone := *goal
	return &clone, nil
}

func (r *InMemoryGoalRepository) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var goals []*domain.Goal
	for _, g := range r.store {
		if g.HomeschoolID == homeschoolID && g.DeletedAt == nil {
			clone := *g
			goals = append(goals, &clone)
		}
	}

	sort.Slice(goals, func(i, j int) bool {
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})

	return goals, nil
}

func (r *InMemoryGoalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store[goal.ID]
	if !ok || current.DeletedAt != nil {
		return domain.ErrGoalNotFound
	}
	if current.Version != goal.Version {
		return domain.ErrGoalConflict
	}

	goal.Version++
	goal.UpdatedAt = time.Now().UTC()
	clone := *goal
	r.store[goal.ID] = &clone
	return nil
}

func (r *InMemoryGoalRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	goal, ok := r.store[id]
	if !ok || goal.DeletedAt != nil {
		return domain.ErrGoalNotFound
	}

	now := time.Now().UTC()
	goal.DeletedAt = &now
	return nil
}

func (r *InMemoryGoalRepository) UpdateLastRecorded(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	goal, ok := r.store[id]
	if !ok || goal.DeletedAt != nil {
		return domain.ErrGoalNotFound
	}

	goal.LastRecordedAt = &at
	return nil
}

type InMemoryActivityRepository struct {
	store map[string]*domain.Activity

	mu sync.RWMutex
}

func NewInMemoryActivityRepository() *InMemoryActivityRepository {
	return &InMemoryActivityRepository{
		store: make(map[string]*domain.Activity),
	}
}

func (r *InMemoryActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *activity
	r.store[activity.ID] = &clone
	return nil
}

func (r *InMemoryActivityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	activity, ok := r.store[id]
	if !ok || activity.DeletedAt != nil {
		return nil, domain.ErrActivityNotFound
	}
	clone := *activity
	return &clone, nil
}

func (r *InMemoryActivityRepository) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var activities []*domain.Activity
	for _, a := range r.store {
		if a.HomeschoolID == homeschoolID && a.DeletedAt == nil {
			clone := *a
			activities = append(activities, &clone)
		}
	}

	sort.Slice(activities, func(i, j int) bool {
		return activities[i].Name < activities[j].Name
	})

	return activities, nil
}

func (r *InMemoryActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store[activity.ID]
	if !ok || current.DeletedAt != nil {
		return domain.ErrActivityNotFound
	}

	clone := *activity
	r.store[activity.ID] = &clone
	return nil
}

func (r *InMemoryActivityRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.store[id]
	if !ok || activity.DeletedAt != nil {
		return domain.ErrActivityNotFound
	}

	now := time.Now().UTC()
	activity.DeletedAt = &now
	return nil
}

type InMemoryPersonRepository struct {
	store map[string]*domain.Person

	mu sync.RWMutex
}

func NewInMemoryPersonRepository() *InMemoryPersonRepository {
	return &InMemoryPersonRepository{
		store: make(map[string]*domain.Person),
	}
}

func (r *InMemoryPersonRepository) Create(ctx context.Context, person *domain.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *person
	r.store[person.ID] = &clone
	return nil
}

func (r *InMemoryPersonRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	person, ok := r.store[id]
	if !ok {
		return nil, domain.ErrPersonNotFound
	}
	clone := *person
	return &clone, nil
}

func (r *InMemoryPersonRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var people []*domain.Person
	for _, id := range ids {
		if p, ok := r.store[id]; ok {
			clone := *p
			people = append(people, &clone)
		}
	}

	sort.Slice(people, func(i, j int) bool {
		return people[i].Name < people[j].Name
	})

	return people, nil
}

func (r *InMemoryPersonRepository) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var people []*domain.Person
	for _, p := range r.store {
		if p.HomeschoolID == homeschoolID {
			clone := *p
			people = append(people, &clone)
		}
	}

	sort.Slice(people, func(i, j int) bool {
		return people[i].Name < people[j].Name
	})

	return people, nil
}

type InMemoryInstanceRepository struct {
	store map[string]*domain.ActivityInstance

	mu sync.RWMutex
}

func NewInMemoryInstanceRepository() *InMemoryInstanceRepository {
	return &InMemoryInstanceRepository{
		store: make(map[string]*domain.ActivityInstance),
	}
}

func (r *InMemoryInstanceRepository) Create(ctx context.Context, inst *domain.ActivityInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	clone := *inst
	r.store[inst.ID] = &clone
	return nil
}

func (r *InMemoryInstanceRepository) GetByID(ctx context.Context, id string) (*domain.ActivityInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.store[id]
	if !ok || inst.DeletedAt != nil {
		return nil, domain.ErrInstanceNotFound
	}
	clone := *inst
	return &clone, nil
}

func (r *InMemoryInstanceRepository) List(ctx context.Context, filter domain.InstanceFilter) ([]*domain.ActivityInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var instances []*domain.ActivityInstance
	for _, inst := range r.store {
		if inst.DeletedAt != nil {
			continue
		}
		if !matchesFilter(inst, filter) {
			continue
		}
		clone := *inst
		instances = append(instances, &clone)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})

	return instances, nil
}

func matchesFilter(inst *domain.ActivityInstance, filter domain.InstanceFilter) bool {
	if filter.GoalID != "" {
		if inst.GoalID != filter.GoalID {
			return false
		}
	} else if len(filter.GoalIDIn) > 0 {
		found := false
		for _, id := range filter.GoalIDIn {
			if inst.GoalID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.StudentID != "" && inst.StudentID != filter.StudentID {
		return false
	}
	if !filter.From.IsZero() && inst.Date.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && !inst.Date.Before(filter.To) {
		return false
	}
	return true
}

func (r *InMemoryInstanceRepository) Update(ctx context.Context, inst *domain.ActivityInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store[inst.ID]
	if !ok || current.DeletedAt != nil {
		return domain.ErrInstanceNotFound
	}
	if current.Version != inst.Version {
		return domain.ErrInstanceConflict
	}

	inst.Version++
	inst.UpdatedAt = time.Now().UTC()
	clone := *inst
	r.store[inst.ID] = &clone
	return nil
}

func (r *InMemoryInstanceRepository) Delete(ctx context.Context, id string, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.store[id]
	if !ok || inst.DeletedAt != nil || inst.StudentID != studentID {
		return domain.ErrInstanceNotFound
	}

	now := time.Now().UTC()
	inst.DeletedAt = &now
	return nil
}
