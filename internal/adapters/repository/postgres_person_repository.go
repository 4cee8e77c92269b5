package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

type PostgresPersonRepository struct {
	db *sql.DB
}

func NewPostgresPersonRepository(db *sql.DB) *PostgresPersonRepository {
	return &PostgresPersonRepository{
		db: db,
	}
}

func (r *PostgresPersonRepository) Create(ctx context.Context, person *domain.Person) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		INSERT INTO people (id, homeschool_id, name, role, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		person.ID,
		person.HomeschoolID,
		person.Name,
		person.Role,
		person.Email,
		person.CreatedAt,
		person.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code == "23505" {
				return fmt.Errorf("person already exists: %w", err)
			}
		}
		return fmt.Errorf("repository: create person failed: %w", err)
	}

	return nil
}

func (r *PostgresPersonRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		SELECT id, homeschool_id, name, role, email, created_at, updated_at
		FROM people
		WHERE id = $1
	`

	var p domain.Person
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.HomeschoolID, &p.Name, &p.Role, &p.Email, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPersonNotFound
		}
		return nil, fmt.Errorf("repository: get person failed: %w", err)
	}

	return &p, nil
}

func (r *PostgresPersonRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Person, error) {
	if len(ids) == 0 {
		return []*domain.Person{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		SELECT id, homeschool_id, name, role, email, created_at, updated_at
		FROM people
		WHERE id = ANY($1)
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("repository: list people failed: %w", err)
	}
	defer rows.Close()

	return scanPeople(rows)
}

func (r *PostgresPersonRepository) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		SELECT id, homeschool_id, name, role, email, created_at, updated_at
		FROM people
		WHERE homeschool_id = $1
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, homeschoolID)
	if err != nil {
		return nil, fmt.Errorf("repository: list people failed: %w", err)
	}
	defer rows.Close()

	return scanPeople(rows)
}

func scanPeople(rows *sql.Rows) ([]*domain.Person, error) {
	people := []*domain.Person{}
	for rows.Next() {
		var p domain.Person
		if err := rows.Scan(&p.ID, &p.HomeschoolID, &p.Name, &p.Role, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: scan person failed: %w", err)
		}
		people = append(people, &p)
	}
	return people, rows.Err()
}
