package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hearthschool/goaltrack/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresGoalRepository struct {
	db *sqlx.DB
}

func NewPostgresGoalRepository(db *sqlx.DB) *PostgresGoalRepository {
	return &PostgresGoalRepository{db: db}
}

type scannable interface {
	Scan(dest ...interface{}) error
}

// StudentIDs and Completions are stored as JSONB columns: they are read and
// written as a unit and never filtered on server-side.
func (r *PostgresGoalRepository) scanRow(row scannable) (*domain.Goal, error) {
	var g domain.Goal
	var studentsJSON, completionsJSON []byte

	err := row.Scan(
		&g.ID, &g.HomeschoolID, &g.ActivityID, &g.Name, &studentsJSON,
		&g.TimesPerWeek, &g.MinutesPerSession, &g.DailyPercentageIncrease,
		&g.PercentageGoal, &g.ProgressCount,
		&g.StartDate, &completionsJSON, &g.LastRecordedAt,
		&g.Version, &g.DeletedAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(studentsJSON) > 0 {
		if err := json.Unmarshal(studentsJSON, &g.StudentIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal student ids: %w", err)
		}
	}
	if len(completionsJSON) > 0 {
		if err := json.Unmarshal(completionsJSON, &g.Completions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal completions: %w", err)
		}
	}

	return &g, nil
}

const goalColumns = `
	id, homeschool_id, activity_id, name, student_ids,
	times_per_week, minutes_per_session, daily_percentage_increase,
	percentage_goal, progress_count,
	start_date, completions, last_recorded_at,
	version, deleted_at, created_at, updated_at`

func (r *PostgresGoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	studentsJSON, err := json.Marshal(g.StudentIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal student ids: %w", err)
	}
	completionsJSON, err := json.Marshal(g.Completions)
	if err != nil {
		return fmt.Errorf("failed to marshal completions: %w", err)
	}

	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.db.ExecContext(ctx, query,
		g.ID, g.HomeschoolID, g.ActivityID, g.Name, studentsJSON,
		g.TimesPerWeek, g.MinutesPerSession, g.DailyPercentageIncrease,
		g.PercentageGoal, g.ProgressCount,
		g.StartDate, completionsJSON, g.LastRecordedAt,
		g.Version, g.DeletedAt, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" {
				return errors.New("referenced activity or homeschool does not exist")
			}
			if pqErr.Code == "23505" {
				return domain.ErrGoalConflict
			}
		}
		return err
	}
	return nil
}

func (r *PostgresGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND deleted_at IS NULL`

	goal, err := r.scanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	return goal, nil
}

func (r *PostgresGoalRepository) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals
		WHERE homeschool_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, homeschoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []*domain.Goal{}
	for rows.Next() {
		g, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *PostgresGoalRepository) Update(ctx context.Context, g *domain.Goal) error {
	studentsJSON, err := json.Marshal(g.StudentIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal student ids: %w", err)
	}
	completionsJSON, err := json.Marshal(g.Completions)
	if err != nil {
		return fmt.Errorf("failed to marshal completions: %w", err)
	}

	g.Version++
	g.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE goals
		SET name = $1,
		    student_ids = $2,
		    times_per_week = $3,
		    minutes_per_session = $4,
		    daily_percentage_increase = $5,
		    percentage_goal = $6,
		    progress_count = $7,
		    start_date = $8,
		    completions = $9,
		    version = $10,
		    updated_at = $11
		WHERE id = $12
		  AND version = $10 - 1 -- Optimistic Lock check
		  AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query,
		g.Name, studentsJSON,
		g.TimesPerWeek, g.MinutesPerSession, g.DailyPercentageIncrease,
		g.PercentageGoal, g.ProgressCount,
		g.StartDate, completionsJSON,
		g.Version, g.UpdatedAt, g.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		exists, _ := r.exists(ctx, g.ID)
		if !exists {
			return domain.ErrGoalNotFound
		}
		return domain.ErrGoalConflict
	}

	return nil
}

func (r *PostgresGoalRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()

	query := `
		UPDATE goals
		SET deleted_at = $1,
		    updated_at = $1,
		    version = version + 1
		WHERE id = $2
		  AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrGoalNotFound
	}

	return nil
}

// UpdateLastRecorded bumps the hint without touching the version: the worker
// must not conflict with concurrent user edits.
func (r *PostgresGoalRepository) UpdateLastRecorded(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE goals
		SET last_recorded_at = $1
		WHERE id = $2
		  AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrGoalNotFound
	}

	return nil
}

func (r *PostgresGoalRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM goals WHERE id = $1", id)
	return count > 0, err
}
