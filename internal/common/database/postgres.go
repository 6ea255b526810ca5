// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"talent-intake/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// schema holds the tables the intake service reads and writes.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS job_applications (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		created_at timestamptz NOT NULL DEFAULT now(),
		full_name text NOT NULL,
		phone_number text NOT NULL,
		email text NOT NULL,
		afriwork_email text,
		role text NOT NULL,
		other_role_specify text,
		experience_years text NOT NULL,
		employment_status text NOT NULL,
		start_date text NOT NULL,
		education_level text NOT NULL,
		top_skills text[] NOT NULL DEFAULT '{}',
		has_measurable_achievements boolean NOT NULL DEFAULT false,
		measurable_achievement text,
		salary_range text NOT NULL,
		work_type text NOT NULL,
		linkedin_url text,
		portfolio_url text,
		priority_reason text,
		cv_file_path text,
		rating smallint CHECK (rating BETWEEN 1 AND 5),
		screening_status text DEFAULT 'pending'
	)`,
	`CREATE INDEX IF NOT EXISTS job_applications_created_at_idx ON job_applications (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id uuid PRIMARY KEY,
		email text NOT NULL UNIQUE,
		role text NOT NULL DEFAULT 'guest',
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id bigserial PRIMARY KEY,
		entity_type text NOT NULL,
		entity_id text NOT NULL,
		action text NOT NULL,
		actor_id text,
		details jsonb,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the intake tables when they are missing.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
