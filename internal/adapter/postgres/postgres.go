// Package postgres implements the domain repositories using PostgreSQL.
// Board mutations are delegated to stored functions installed by the
// embedded migrations.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// New wraps an existing handle.
func New(db *sql.DB) *DB {
	return &DB{sql: db}
}

// Open connects to PostgreSQL and pings it, retrying with exponential
// backoff while the server comes up.
func Open(ctx context.Context, connStr string, logger *slog.Logger) (*DB, error) {
	connector, err := pq.NewConnector(connStr)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}
	s := sql.OpenDB(connector)
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	backoff := retry.WithMaxRetries(6, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.PingContext(pingCtx); err != nil {
			logger.WarnContext(ctx, "database not reachable yet", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = s.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	return &DB{sql: s}, nil
}

// SQL exposes the underlying handle for migrations.
func (d *DB) SQL() *sql.DB {
	return d.sql
}

// Ping reports whether the database answers.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}
