package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends audit events to the audit_events table.
//
// Assumed schema:
//
//	CREATE TABLE audit_events (
//	    id            UUID PRIMARY KEY,
//	    type          TEXT NOT NULL,
//	    actor_user_id TEXT,
//	    username      TEXT,
//	    role          TEXT,
//	    ip_address    TEXT,
//	    message       TEXT,
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, actor_user_id, username, role, ip_address, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.Type,
		e.ActorUserID,
		e.Username,
		e.Role,
		e.IPAddress,
		e.Message,
		e.CreatedAt,
	)
	return err
}
