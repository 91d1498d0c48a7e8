package server

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore keeps accounts in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects, pings and runs migrations
func OpenPostgres(ctx context.Context, dbURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate runs database migrations
func (s *PostgresStore) migrate(ctx context.Context) error {
	migrations := []string{
		migrationUsers,
	}

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

const migrationUsers = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    fullname TEXT NOT NULL,
    username VARCHAR(255) UNIQUE NOT NULL,
    email VARCHAR(255) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email));
CREATE INDEX IF NOT EXISTS idx_users_created ON users (created_at);
`

const accountColumns = `id, fullname, username, email, password_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Fullname, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

// mapError turns constraint violations into store errors
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) Create(ctx context.Context, a Account) (Account, error) {
	a.ID = uuid.NewString()
	now := time.Now().UTC()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, fullname, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+accountColumns,
		a.ID, a.Fullname, a.Username, a.Email, a.PasswordHash, now,
	)
	created, err := scanAccount(row)
	if err != nil {
		return Account{}, mapError(err)
	}
	return created, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE LOWER(email) = $1`, normalizeEmail(email)))
}

func (s *PostgresStore) List(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id string, p UserPatch) (Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, err
	}
	defer tx.Rollback()

	a, err := scanAccount(tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Account{}, err
	}

	p.apply(&a, time.Now().UTC())
	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET fullname = $2, username = $3, email = $4, password_hash = $5, updated_at = $6
		WHERE id = $1`,
		a.ID, a.Fullname, a.Username, a.Email, a.PasswordHash, a.UpdatedAt,
	)
	if err != nil {
		return Account{}, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
