package credentials

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo reads credentials from the users table.
//
// Assumed schema:
//
//	CREATE TABLE users (
//	    id            UUID PRIMARY KEY,
//	    username      TEXT NOT NULL UNIQUE,
//	    password_hash BYTEA NOT NULL,
//	    role          TEXT NOT NULL,
//	    status        TEXT NOT NULL DEFAULT 'active',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Lookup(ctx context.Context, username string) (Credential, error) {
	const q = `
SELECT id, username, password_hash, role, created_at, updated_at
FROM users
WHERE username = $1 AND status = 'active'
`
	var c Credential
	if err := r.db.QueryRowContext(ctx, q, username).Scan(
		&c.ID,
		&c.Username,
		&c.PasswordHash,
		&c.Role,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, err
	}
	return c, nil
}
