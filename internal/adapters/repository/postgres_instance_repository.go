package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

type PostgresInstanceRepository struct {
	db *sqlx.DB
}

func NewPostgresInstanceRepository(db *sqlx.DB) *PostgresInstanceRepository {
	return &PostgresInstanceRepository{db: db}
}

func (r *PostgresInstanceRepository) Create(ctx context.Context, inst *domain.ActivityInstance) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}

	query := `
		INSERT INTO activity_instances (
			id, goal_id, student_id,
			date, start_time, end_time, duration,
			starting_percentage, ending_percentage, percentage_completed, count_completed,
			version, created_at, updated_at, deleted_at
		) VALUES (
			:id, :goal_id, :student_id,
			:date, :start_time, :end_time, :duration,
			:starting_percentage, :ending_percentage, :percentage_completed, :count_completed,
			:version, :created_at, :updated_at, :deleted_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, inst)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" {
				return errors.New("referenced goal or student does not exist")
			}
			if pqErr.Code == "23505" {
				return domain.ErrInstanceConflict
			}
		}
		return err
	}
	return nil
}

func (r *PostgresInstanceRepository) GetByID(ctx context.Context, id string) (*domain.ActivityInstance, error) {
	var inst domain.ActivityInstance
	query := `SELECT * FROM activity_instances WHERE id = $1 AND deleted_at IS NULL`

	err := r.db.GetContext(ctx, &inst, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// List applies the filter fields that are set. Results come back oldest
// created first so earliest-created tie-breaks need no extra sort.
func (r *PostgresInstanceRepository) List(ctx context.Context, filter domain.InstanceFilter) ([]*domain.ActivityInstance, error) {
	query := `SELECT * FROM activity_instances WHERE deleted_at IS NULL`
	args := []interface{}{}

	if filter.GoalID != "" {
		args = append(args, filter.GoalID)
		query += " AND goal_id = ?"
	} else if len(filter.GoalIDIn) > 0 {
		args = append(args, filter.GoalIDIn)
		query += " AND goal_id IN (?)"
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += " AND student_id = ?"
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += " AND date >= ?"
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += " AND date < ?"
	}

	query += " ORDER BY created_at ASC"

	query, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	instances := []*domain.ActivityInstance{}
	if err := r.db.SelectContext(ctx, &instances, query, expandedArgs...); err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *PostgresInstanceRepository) Update(ctx context.Context, inst *domain.ActivityInstance) error {
	inst.Version++
	inst.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE activity_instances
		SET date = :date,
		    start_time = :start_time,
		    end_time = :end_time,
		    duration = :duration,
		    starting_percentage = :starting_percentage,
		    ending_percentage = :ending_percentage,
		    percentage_completed = :percentage_completed,
		    count_completed = :count_completed,
		    version = :version,
		    updated_at = :updated_at
		WHERE id = :id
		  AND version = :version - 1  -- Optimistic Lock check
		  AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, inst)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		exists, _ := r.exists(ctx, inst.ID)
		if !exists {
			return domain.ErrInstanceNotFound
		}
		return domain.ErrInstanceConflict
	}

	return nil
}

func (r *PostgresInstanceRepository) Delete(ctx context.Context, id string, studentID string) error {
	now := time.Now().UTC()

	query := `
		UPDATE activity_instances
		SET deleted_at = $1,
		    updated_at = $1,
		    version = version + 1
		WHERE id = $2
		  AND student_id = $3 -- Security Check
		  AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, now, id, studentID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInstanceNotFound
	}

	return nil
}

func (r *PostgresInstanceRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM activity_instances WHERE id = $1", id)
	return count > 0, err
}
