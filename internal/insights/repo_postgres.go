package insights

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo reads dashboard data from the analytics tables.
//
// Assumed schema:
//
//	CREATE TABLE credit_scores (
//	    username   TEXT PRIMARY KEY,
//	    score      INT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE spending_entries (
//	    id           UUID PRIMARY KEY,
//	    username     TEXT NOT NULL,
//	    category     TEXT NOT NULL,
//	    amount_minor BIGINT NOT NULL,
//	    currency     TEXT NOT NULL,
//	    spent_at     TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE loan_application_events (
//	    id         UUID PRIMARY KEY,
//	    stage      TEXT NOT NULL,
//	    reached_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) CreditScore(ctx context.Context, username string) (CreditScore, error) {
	const q = `
SELECT username, score, updated_at
FROM credit_scores
WHERE username = $1
`
	var cs CreditScore
	if err := r.db.QueryRowContext(ctx, q, username).Scan(&cs.Username, &cs.Score, &cs.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CreditScore{}, ErrNotFound
		}
		return CreditScore{}, err
	}
	return cs, nil
}

func (r *PostgresRepo) ListSpending(ctx context.Context, username string, from, to time.Time) ([]SpendingEntry, error) {
	const q = `
SELECT username, category, amount_minor, currency, spent_at
FROM spending_entries
WHERE username = $1 AND spent_at >= $2 AND spent_at <= $3
ORDER BY spent_at
`
	rows, err := r.db.QueryContext(ctx, q, username, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpendingEntry
	for rows.Next() {
		var e SpendingEntry
		if err := rows.Scan(&e.Username, &e.Category, &e.AmountMinor, &e.Currency, &e.SpentAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountFunnelStage(ctx context.Context, stage string, from, to time.Time) (int, error) {
	const q = `
SELECT count(*)
FROM loan_application_events
WHERE stage = $1 AND reached_at >= $2 AND reached_at <= $3
`
	var n int
	if err := r.db.QueryRowContext(ctx, q, stage, from, to).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
