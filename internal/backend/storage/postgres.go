package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// PostgresStore persists applications in PostgreSQL through the pgx driver.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the applications table when it does not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS staff_applications (
	id              TEXT PRIMARY KEY,
	idempotency_key TEXT UNIQUE,
	submitted_at    TIMESTAMPTZ NOT NULL,
	ign             TEXT NOT NULL,
	discord         TEXT NOT NULL,
	age             TEXT NOT NULL,
	timezone        TEXT NOT NULL,
	role            TEXT NOT NULL,
	experience      TEXT NOT NULL,
	reason          TEXT NOT NULL
);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const selectColumns = `id, COALESCE(idempotency_key, '') AS idempotency_key, submitted_at,
	ign, discord, age, timezone, role, experience, reason`

// Create inserts app. A conflicting idempotency key returns the stored row.
func (s *PostgresStore) Create(ctx context.Context, app Application) (Application, bool, error) {
	app = stamp(app, s.now)

	const query = `
INSERT INTO staff_applications
	(id, idempotency_key, submitted_at, ign, discord, age, timezone, role, experience, reason)
VALUES
	(:id, NULLIF(:idempotency_key, ''), :submitted_at, :ign, :discord, :age, :timezone, :role, :experience, :reason)
ON CONFLICT (idempotency_key) DO NOTHING`

	res, err := s.db.NamedExecContext(ctx, query, app)
	if err != nil {
		return Application{}, false, fmt.Errorf("storage: insert application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Application{}, false, err
	}
	if affected == 1 {
		return app, true, nil
	}

	var existing Application
	err = s.db.GetContext(ctx, &existing,
		`SELECT `+selectColumns+` FROM staff_applications WHERE idempotency_key = $1`, app.IdempotencyKey)
	if err != nil {
		return Application{}, false, fmt.Errorf("storage: load replayed application: %w", err)
	}
	return existing, false, nil
}

// Get returns the application with the given ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (Application, error) {
	var app Application
	err := s.db.GetContext(ctx, &app, `SELECT `+selectColumns+` FROM staff_applications WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, err
	}
	return app, nil
}

// List returns every application, oldest first.
func (s *PostgresStore) List(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := s.db.SelectContext(ctx, &apps,
		`SELECT `+selectColumns+` FROM staff_applications ORDER BY submitted_at ASC, id ASC`); err != nil {
		return nil, err
	}
	return apps, nil
}
