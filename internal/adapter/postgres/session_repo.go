package postgres

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo implements domain.SessionRepository.
type SessionRepo struct {
	sql *sql.DB
}

// NewSessionRepo returns a session store sharing d's connection pool.
func NewSessionRepo(d *DB) *SessionRepo {
	return &SessionRepo{sql: d.sql}
}

// Upsert stores the session, replacing the owner and expiry of an existing
// row with the same id.
func (r *SessionRepo) Upsert(ctx context.Context, id, userID string, expiresAt time.Time) error {
	_, err := r.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`,
		id, userID, expiresAt)
	if err != nil {
		return translate("SESSION_UPSERT_FAILED", err, nil)
	}
	return nil
}

// ResolveUserID returns the owner of an unexpired session.
func (r *SessionRepo) ResolveUserID(ctx context.Context, id string, now time.Time) (string, error) {
	var userID string
	err := r.sql.QueryRowContext(ctx,
		`SELECT user_id FROM sessions WHERE id = $1 AND expires_at > $2`,
		id, now).Scan(&userID)
	if err != nil {
		return "", translate("SESSION_QUERY_FAILED", err, nil)
	}
	return userID, nil
}

// Delete removes a session. Missing ids are not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.sql.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return translate("SESSION_DELETE_FAILED", err, nil)
	}
	return nil
}

// DeleteExpired removes every session that expired at or before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.sql.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, translate("SESSION_SWEEP_FAILED", err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate("SESSION_SWEEP_FAILED", err, nil)
	}
	return n, nil
}
