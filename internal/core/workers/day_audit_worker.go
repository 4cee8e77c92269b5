package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/core/schedule"
	"github.com/hearthschool/goaltrack/internal/logger"
)

type GoalRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Goal, error)
	UpdateLastRecorded(ctx context.Context, id string, at time.Time) error
}

type InstanceRepository interface {
	List(ctx context.Context, filter domain.InstanceFilter) ([]*domain.ActivityInstance, error)
}

// AuditJob asks the worker to re-examine one goal/student/local-day bucket
// after a write has landed.
type AuditJob struct {
	GoalID    string
	StudentID string
	LocalDate string
}

// DayAuditWorker runs after every instance write. It refreshes the goal's
// last-recorded hint and, when the single-record-per-day policy is on, sweeps
// the written day for duplicate instances that slipped through the guard's
// race window. Duplicates are logged, never repaired here: true at-most-one
// enforcement needs a transactional check at the storage layer.
type DayAuditWorker struct {
	goalRepo     GoalRepository
	instanceRepo InstanceRepository
	loc          *time.Location
	singleRecord bool
	jobs         chan AuditJob
}

func NewDayAuditWorker(goalRepo GoalRepository, instanceRepo InstanceRepository, loc *time.Location, singleRecord bool) *DayAuditWorker {
	return &DayAuditWorker{
		goalRepo:     goalRepo,
		instanceRepo: instanceRepo,
		loc:          loc,
		singleRecord: singleRecord,
		jobs:         make(chan AuditJob, 100),
	}
}

func (w *DayAuditWorker) Start(ctx context.Context) {
	go func() {
		logger.Log.Info("Day audit worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				logger.Log.Info("Day audit worker shutting down...")
				return
			}
		}
	}()
}

func (w *DayAuditWorker) Enqueue(job AuditJob) {
	select {
	case w.jobs <- job:
	default:
		logger.Log.WithField("goal_id", job.GoalID).Warn("Day audit queue full, dropping job")
	}
}

func (w *DayAuditWorker) processJob(ctx context.Context, job AuditJob) {
	instances, err := w.instanceRepo.List(ctx, domain.InstanceFilter{
		GoalID:    job.GoalID,
		StudentID: job.StudentID,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("goal_id", job.GoalID).Error("Audit: failed to list instances")
		return
	}

	var latest time.Time
	dayCount := 0
	for _, inst := range instances {
		if inst.Date.After(latest) {
			latest = inst.Date
		}
		if schedule.InstantToLocalDate(inst.Date, w.loc) == job.LocalDate {
			dayCount++
		}
	}

	if w.singleRecord && dayCount > 1 {
		logger.Log.WithFields(logrus.Fields{
			"event":      "duplicate_race_detected",
			"goal_id":    job.GoalID,
			"student_id": job.StudentID,
			"local_date": job.LocalDate,
			"count":      dayCount,
		}).Warn("Multiple instances found for a single-record day")
	}

	if latest.IsZero() {
		return
	}

	goal, err := w.goalRepo.GetByID(ctx, job.GoalID)
	if err != nil {
		logger.Log.WithError(err).WithField("goal_id", job.GoalID).Error("Audit: failed to fetch goal")
		return
	}

	if goal.LastRecordedAt == nil || latest.After(*goal.LastRecordedAt) {
		if err := w.goalRepo.UpdateLastRecorded(ctx, goal.ID, latest); err != nil {
			logger.Log.WithError(err).WithField("goal_id", goal.ID).Error("Audit: failed to update last-recorded hint")
		}
	}
}
