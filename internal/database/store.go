package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"smartbin-backend/internal/errors"
)

const defaultQueryTimeout = 5 * time.Second

// Store is the durable store behind the bin registry, the telemetry history
// and the collection log. Every call is bounded by the configured timeout.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStore wraps an open connection.
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Store{db: db, timeout: timeout}
}

// DB exposes the underlying handle for migrations and tooling.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks that the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(errors.ErrConnection, err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// classify maps a driver error onto the application error taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrTimeout, err)
	case stderrors.Is(err, driver.ErrBadConn), stderrors.Is(err, sql.ErrConnDone):
		return errors.Wrap(errors.ErrConnection, err)
	case isUniqueViolation(err):
		return errors.Wrap(errors.ErrIntegrityViolation, err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return errors.Wrap(errors.ErrConnection, err)
	}
	return errors.Wrap(errors.ErrQueryFailed, err)
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if stderrors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
