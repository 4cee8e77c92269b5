package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/core/schedule"
	"github.com/hearthschool/goaltrack/internal/core/workers"
	"github.com/hearthschool/goaltrack/internal/logger"
)

// ErrStaleProbe marks a duplicate-probe result that arrived after a newer
// probe for the same student started. It is an internal cancellation outcome:
// the boundary drops it silently, it never reaches the user.
var ErrStaleProbe = errors.New("stale duplicate probe discarded")

// RecordService is the write path for activity instances: it converts
// user-entered local dates and times into canonical instants, routes writes
// to update-instead-of-insert when the single-record-per-day policy is on,
// and applies optimistic locking on edits.
type RecordService struct {
	instanceRepo domain.InstanceRepository
	goalRepo     domain.GoalRepository
	worker       *workers.DayAuditWorker

	loc           *time.Location
	allowMultiple bool

	// Duplicate probes carry a monotonically increasing id per student; a
	// probe that finishes after a newer one began is discarded, so a stale
	// "existing instance" can never be applied to a new selection.
	probeMu     sync.Mutex
	probeSeq    uint64
	latestProbe map[string]uint64
}

func NewRecordService(instanceRepo domain.InstanceRepository, goalRepo domain.GoalRepository, worker *workers.DayAuditWorker, loc *time.Location, allowMultiple bool) *RecordService {
	return &RecordService{
		instanceRepo:  instanceRepo,
		goalRepo:      goalRepo,
		worker:        worker,
		loc:           loc,
		allowMultiple: allowMultiple,
		latestProbe:   make(map[string]uint64),
	}
}

type RecordInstanceInput struct {
	GoalID    string
	StudentID string

	// Date is the intended local calendar day, "YYYY-MM-DD".
	Date string
	// StartTime/EndTime are optional local clock times, "HH:MM".
	StartTime string
	EndTime   string
	// Timezone optionally overrides the configured zone for this write.
	Timezone string

	Duration            *float64
	StartingPercentage  *float64
	EndingPercentage    *float64
	PercentageCompleted *float64
	CountCompleted      *int
}

type UpdateInstanceInput struct {
	ID        string
	StudentID string

	Duration            *float64
	StartingPercentage  *float64
	EndingPercentage    *float64
	PercentageCompleted *float64
	CountCompleted      *int

	Version int
}

// location resolves a per-request timezone override, falling back to the
// configured zone on an unknown identifier.
func (s *RecordService) location(tzName string) *time.Location {
	if tzName == "" {
		return s.loc
	}
	loc, err := schedule.LoadLocation(tzName)
	if err != nil {
		logger.Log.WithField("timezone", tzName).Warn("Unknown timezone on write path, using configured default")
		return s.loc
	}
	return loc
}

// Record persists one completion event. When multiple records per day are
// disabled it first looks for an existing instance on the same local day and
// routes the write to an update. Returns created=false when an existing
// record was updated instead.
func (s *RecordService) Record(ctx context.Context, input RecordInstanceInput) (*domain.ActivityInstance, bool, error) {
	goal, err := s.goalRepo.GetByID(ctx, input.GoalID)
	if err != nil {
		return nil, false, err
	}
	if !goal.HasStudent(input.StudentID) {
		return nil, false, domain.ErrUnauthorized
	}

	loc := s.location(input.Timezone)

	dateInstant, err := schedule.DateToInstant(input.Date, loc)
	if err != nil {
		return nil, false, err
	}

	var startAt, endAt *time.Time
	if input.StartTime != "" {
		t, convErr := s.convertLocalTime(input.Date, input.StartTime, loc, input.GoalID)
		if convErr != nil {
			return nil, false, convErr
		}
		startAt = &t
	}
	if input.EndTime != "" {
		t, convErr := s.convertLocalTime(input.Date, input.EndTime, loc, input.GoalID)
		if convErr != nil {
			return nil, false, convErr
		}
		endAt = &t
	}

	duration := input.Duration
	if duration == nil && startAt != nil && endAt != nil {
		minutes := endAt.Sub(*startAt).Minutes()
		duration = &minutes
	}

	if !s.allowMultiple {
		if existing, routeErr := s.routeToExisting(ctx, input, dateInstant, loc, startAt, endAt, duration); routeErr != nil {
			return nil, false, routeErr
		} else if existing != nil {
			return existing, false, nil
		}
	}

	inst := domain.NewActivityInstance(input.GoalID, input.StudentID, dateInstant)
	inst.StartTime = startAt
	inst.EndTime = endAt
	inst.Duration = duration
	inst.StartingPercentage = input.StartingPercentage
	inst.EndingPercentage = input.EndingPercentage
	inst.PercentageCompleted = input.PercentageCompleted
	inst.CountCompleted = input.CountCompleted

	if err := inst.Validate(); err != nil {
		return nil, false, err
	}

	if err := s.instanceRepo.Create(ctx, inst); err != nil {
		return nil, false, err
	}

	s.worker.Enqueue(workers.AuditJob{
		GoalID:    inst.GoalID,
		StudentID: inst.StudentID,
		LocalDate: input.Date,
	})

	return inst, true, nil
}

// routeToExisting implements the duplicate-record guard on the write path.
// The candidate list is re-fetched immediately before committing the update
// to shrink (not eliminate) the window where two concurrent writes both see
// nothing; the accepted leftover race is swept by the day-audit worker.
func (s *RecordService) routeToExisting(ctx context.Context, input RecordInstanceInput, dateInstant time.Time, loc *time.Location, startAt, endAt *time.Time, duration *float64) (*domain.ActivityInstance, error) {
	candidates, err := s.instanceRepo.List(ctx, domain.InstanceFilter{
		GoalID:    input.GoalID,
		StudentID: input.StudentID,
	})
	if err != nil {
		return nil, err
	}

	existing := FindExistingForDay(input.GoalID, input.StudentID, input.Date, loc, candidates)
	if existing == nil {
		return nil, nil
	}

	// Re-check right before the write: the record may have been deleted (or a
	// newer duplicate created) while this request was in flight.
	fresh, err := s.instanceRepo.List(ctx, domain.InstanceFilter{
		GoalID:    input.GoalID,
		StudentID: input.StudentID,
	})
	if err != nil {
		return nil, err
	}
	existing = FindExistingForDay(input.GoalID, input.StudentID, input.Date, loc, fresh)
	if existing == nil {
		return nil, nil
	}

	existing.Date = dateInstant
	existing.StartTime = startAt
	existing.EndTime = endAt
	existing.Duration = duration
	existing.StartingPercentage = input.StartingPercentage
	existing.EndingPercentage = input.EndingPercentage
	existing.PercentageCompleted = input.PercentageCompleted
	existing.CountCompleted = input.CountCompleted
	existing.UpdatedAt = time.Now().UTC()

	if err := instValidateAndUpdate(ctx, s.instanceRepo, existing); err != nil {
		return nil, err
	}

	s.worker.Enqueue(workers.AuditJob{
		GoalID:    existing.GoalID,
		StudentID: existing.StudentID,
		LocalDate: input.Date,
	})

	return existing, nil
}

func instValidateAndUpdate(ctx context.Context, repo domain.InstanceRepository, inst *domain.ActivityInstance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	return repo.Update(ctx, inst)
}

func (s *RecordService) convertLocalTime(dateStr, timeStr string, loc *time.Location, goalID string) (time.Time, error) {
	t, err := schedule.LocalDateTimeToInstant(dateStr, timeStr, loc)
	if err != nil {
		if errors.Is(err, schedule.ErrAmbiguousLocalTime) {
			// Best-effort instant is still definite; surface it, log, and
			// never block the write over a DST anomaly.
			logger.Log.WithFields(logrus.Fields{
				"goal_id": goalID,
				"date":    dateStr,
				"time":    timeStr,
			}).Warn("Ambiguous local time, using best-effort instant")
			return t, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// FindExistingForDay is the duplicate-record guard: it returns the instance
// already recorded for the goal/student/local-day triple, or nil. Matching
// projects each candidate's stored instant back into the local calendar, so
// a record stored as midnight Eastern still matches its intended day. If a
// prior race left more than one match, the earliest-created wins and the
// anomaly is logged; the operation never fails over it.
func FindExistingForDay(goalID, studentID, localDate string, loc *time.Location, candidates []*domain.ActivityInstance) *domain.ActivityInstance {
	var matches []*domain.ActivityInstance
	for _, c := range candidates {
		if c.GoalID != goalID || c.StudentID != studentID {
			continue
		}
		if schedule.InstantToLocalDate(c.Date, loc) == localDate {
			matches = append(matches, c)
		}
	}

	if len(matches) == 0 {
		return nil
	}

	earliest := matches[0]
	for _, m := range matches[1:] {
		if m.CreatedAt.Before(earliest.CreatedAt) {
			earliest = m
		}
	}

	if len(matches) > 1 {
		logger.Log.WithFields(logrus.Fields{
			"event":      "duplicate_race_detected",
			"goal_id":    goalID,
			"student_id": studentID,
			"local_date": localDate,
			"count":      len(matches),
		}).Warn("Multiple instances matched a single-record day, using earliest")
	}

	return earliest
}

// ProbeDuplicate answers "does a record already exist for this selection"
// for the record form. Each probe gets a monotonically increasing id; if a
// newer probe for the same student starts before this one finishes, the
// result is discarded as stale rather than applied to the new selection.
func (s *RecordService) ProbeDuplicate(ctx context.Context, goalID, studentID, localDate, tzName string) (*domain.ActivityInstance, error) {
	loc := s.location(tzName)

	id := s.beginProbe(studentID)

	candidates, err := s.instanceRepo.List(ctx, domain.InstanceFilter{
		GoalID:    goalID,
		StudentID: studentID,
	})
	if err != nil {
		return nil, err
	}

	if s.probeStale(studentID, id) {
		logger.Log.WithFields(logrus.Fields{
			"event":      "stale_probe_discarded",
			"goal_id":    goalID,
			"student_id": studentID,
			"local_date": localDate,
		}).Debug("Discarding duplicate probe superseded by a newer one")
		return nil, ErrStaleProbe
	}

	return FindExistingForDay(goalID, studentID, localDate, loc, candidates), nil
}

func (s *RecordService) beginProbe(studentID string) uint64 {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()
	s.probeSeq++
	s.latestProbe[studentID] = s.probeSeq
	return s.probeSeq
}

func (s *RecordService) probeStale(studentID string, id uint64) bool {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()
	return s.latestProbe[studentID] != id
}

func (s *RecordService) GetByID(ctx context.Context, id string, studentID string) (*domain.ActivityInstance, error) {
	inst, err := s.instanceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.StudentID != studentID {
		return nil, domain.ErrUnauthorized
	}
	return inst, nil
}

// Update edits an existing instance with optimistic locking.
func (s *RecordService) Update(ctx context.Context, input UpdateInstanceInput) (*domain.ActivityInstance, error) {
	existing, err := s.GetByID(ctx, input.ID, input.StudentID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && existing.Version != input.Version {
		return nil, domain.ErrInstanceConflict
	}

	existing.Duration = input.Duration
	existing.StartingPercentage = input.StartingPercentage
	existing.EndingPercentage = input.EndingPercentage
	existing.PercentageCompleted = input.PercentageCompleted
	existing.CountCompleted = input.CountCompleted
	existing.UpdatedAt = time.Now().UTC()

	if err := instValidateAndUpdate(ctx, s.instanceRepo, existing); err != nil {
		return nil, err
	}

	s.worker.Enqueue(workers.AuditJob{
		GoalID:    existing.GoalID,
		StudentID: existing.StudentID,
		LocalDate: schedule.InstantToLocalDate(existing.Date, s.loc),
	})

	return existing, nil
}

func (s *RecordService) Delete(ctx context.Context, id string, studentID string) error {
	inst, err := s.instanceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inst.StudentID != studentID {
		return domain.ErrUnauthorized
	}

	if err := s.instanceRepo.Delete(ctx, id, studentID); err != nil {
		return err
	}

	s.worker.Enqueue(workers.AuditJob{
		GoalID:    inst.GoalID,
		StudentID: inst.StudentID,
		LocalDate: schedule.InstantToLocalDate(inst.Date, s.loc),
	})

	return nil
}

// ListByGoal returns a student's instances for one goal, newest-day first
// windows left to the caller via from/to instants.
func (s *RecordService) ListByGoal(ctx context.Context, goalID, studentID string, from, to time.Time) ([]*domain.ActivityInstance, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.HasStudent(studentID) {
		return nil, domain.ErrUnauthorized
	}

	return s.instanceRepo.List(ctx, domain.InstanceFilter{
		GoalID:    goalID,
		StudentID: studentID,
		From:      from,
		To:        to,
	})
}
