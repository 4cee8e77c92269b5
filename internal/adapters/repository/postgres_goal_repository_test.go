package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthschool/goaltrack/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		dbUser = "goaltrack_user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "secret"
	}
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "goaltrack_db"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}

	ensureSchema(t, db)
	return db
}

func ensureSchema(t *testing.T, db *sqlx.DB) {
	schema := `
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		homeschool_id TEXT NOT NULL,
		name TEXT NOT NULL,
		track_percentage BOOLEAN NOT NULL DEFAULT FALSE,
		track_time BOOLEAN NOT NULL DEFAULT FALSE,
		track_count BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		deleted_at TIMESTAMPTZ
	);
	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		homeschool_id TEXT NOT NULL,
		activity_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		student_ids JSONB NOT NULL DEFAULT '[]',
		times_per_week INTEGER,
		minutes_per_session DOUBLE PRECISION,
		daily_percentage_increase DOUBLE PRECISION,
		percentage_goal DOUBLE PRECISION,
		progress_count INTEGER,
		start_date TIMESTAMPTZ,
		completions JSONB NOT NULL DEFAULT '{}',
		last_recorded_at TIMESTAMPTZ,
		version INTEGER NOT NULL DEFAULT 1,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS activity_instances (
		id TEXT PRIMARY KEY,
		goal_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		start_time TIMESTAMPTZ,
		end_time TIMESTAMPTZ,
		duration DOUBLE PRECISION,
		starting_percentage DOUBLE PRECISION,
		ending_percentage DOUBLE PRECISION,
		percentage_completed DOUBLE PRECISION,
		count_completed INTEGER,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		deleted_at TIMESTAMPTZ
	);
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		homeschool_id TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`

	_, err := db.Exec(schema)
	require.NoError(t, err, "Failed to ensure test schema")
}

func cleanup(t *testing.T, db *sqlx.DB) {
	_, err := db.Exec("TRUNCATE TABLE activity_instances, goals, activities, people CASCADE")
	require.NoError(t, err, "Failed to clean up database")
}

func newTestGoal(t *testing.T, homeschoolID string) *domain.Goal {
	t.Helper()
	g, err := domain.NewGoal(homeschoolID, uuid.NewString(), "Daily Reading", []string{"s1", "s2"})
	require.NoError(t, err)
	tpw := 3
	require.NoError(t, g.SetTargets(&tpw, nil, nil, nil, nil))
	return g
}

func TestPostgresGoalRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	repo := NewPostgresGoalRepository(db)
	ctx := context.Background()

	homeschoolID := "hs-goal-itest"

	t.Run("Create and GetByID round trip", func(t *testing.T) {
		g := newTestGoal(t, homeschoolID)
		require.NoError(t, g.CompleteFor("s1", time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), "A"))

		require.NoError(t, repo.Create(ctx, g))

		fetched, err := repo.GetByID(ctx, g.ID)
		require.NoError(t, err)

		assert.Equal(t, g.ID, fetched.ID)
		assert.Equal(t, []string{"s1", "s2"}, fetched.StudentIDs, "student ids survive the JSONB round trip")
		assert.Equal(t, 3, *fetched.TimesPerWeek)
		require.Contains(t, fetched.Completions, "s1")
		assert.Equal(t, "A", fetched.Completions["s1"].Grade)
	})

	t.Run("GetByID not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)
	})

	t.Run("ListByHomeschool returns creation order", func(t *testing.T) {
		cleanup(t, db)

		first := newTestGoal(t, homeschoolID)
		require.NoError(t, repo.Create(ctx, first))
		second := newTestGoal(t, homeschoolID)
		second.CreatedAt = first.CreatedAt.Add(time.Second)
		require.NoError(t, repo.Create(ctx, second))

		other := newTestGoal(t, "some-other-homeschool")
		require.NoError(t, repo.Create(ctx, other))

		goals, err := repo.ListByHomeschool(ctx, homeschoolID)
		require.NoError(t, err)
		require.Len(t, goals, 2)
		assert.Equal(t, first.ID, goals[0].ID)
		assert.Equal(t, second.ID, goals[1].ID)
	})

	t.Run("Update enforces optimistic locking", func(t *testing.T) {
		g := newTestGoal(t, homeschoolID)
		require.NoError(t, repo.Create(ctx, g))

		require.NoError(t, g.Rename("Renamed"))
		require.NoError(t, repo.Update(ctx, g))
		assert.Equal(t, 2, g.Version)

		stale := *g
		stale.Version = 1
		err := repo.Update(ctx, &stale)
		assert.ErrorIs(t, err, domain.ErrGoalConflict)
	})

	t.Run("Update missing goal", func(t *testing.T) {
		ghost := newTestGoal(t, homeschoolID)
		err := repo.Update(ctx, ghost)
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)
	})

	t.Run("Delete is soft", func(t *testing.T) {
		g := newTestGoal(t, homeschoolID)
		require.NoError(t, repo.Create(ctx, g))

		require.NoError(t, repo.Delete(ctx, g.ID))

		_, err := repo.GetByID(ctx, g.ID)
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)

		var count int
		require.NoError(t, db.Get(&count, "SELECT count(*) FROM goals WHERE id = $1", g.ID))
		assert.Equal(t, 1, count, "soft-deleted row must remain in the table")
	})

	t.Run("UpdateLastRecorded does not bump the version", func(t *testing.T) {
		g := newTestGoal(t, homeschoolID)
		require.NoError(t, repo.Create(ctx, g))

		at := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
		require.NoError(t, repo.UpdateLastRecorded(ctx, g.ID, at))

		fetched, err := repo.GetByID(ctx, g.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched.LastRecordedAt)
		assert.True(t, fetched.LastRecordedAt.Equal(at))
		assert.Equal(t, g.Version, fetched.Version)
	})
}
