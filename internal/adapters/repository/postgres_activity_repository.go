package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

type PostgresActivityRepository struct {
	db *sqlx.DB
}

func NewPostgresActivityRepository(db *sqlx.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	query := `
		INSERT INTO activities (
			id, homeschool_id, name,
			track_percentage, track_time, track_count,
			created_at, updated_at, deleted_at
		) VALUES (
			:id, :homeschool_id, :name,
			:track_percentage, :track_time, :track_count,
			:created_at, :updated_at, :deleted_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.New("activity already exists")
		}
		return err
	}
	return nil
}

func (r *PostgresActivityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	var a domain.Activity
	query := `SELECT * FROM activities WHERE id = $1 AND deleted_at IS NULL`

	err := r.db.GetContext(ctx, &a, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PostgresActivityRepository) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Activity, error) {
	activities := []*domain.Activity{}

	query := `
		SELECT * FROM activities
		WHERE homeschool_id = $1 AND deleted_at IS NULL
		ORDER BY name ASC`

	if err := r.db.SelectContext(ctx, &activities, query, homeschoolID); err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *PostgresActivityRepository) Update(ctx context.Context, a *domain.Activity) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE activities
		SET name = :name,
		    track_percentage = :track_percentage,
		    track_time = :track_time,
		    track_count = :track_count,
		    updated_at = :updated_at
		WHERE id = :id
		  AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrActivityNotFound
	}

	return nil
}

func (r *PostgresActivityRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()

	query := `
		UPDATE activities
		SET deleted_at = $1,
		    updated_at = $1
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
		return domain.ErrActivityNotFound
	}

	return nil
}
