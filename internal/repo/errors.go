package repo

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cdia2025/cheque-app/internal/domain"
)

// Postgres SQLSTATE codes and classes the store reacts to.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"

	pgClassConnection   = "08"
	pgClassInvalidAuth  = "28"
	pgClassInsufficient = "53" // too_many_connections, out of memory, disk full
)

// wrapErr annotates err with op and maps driver failures onto the domain
// error taxonomy, so services and handlers can branch with errors.Is without
// knowing anything about Postgres.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if sentinel := classify(err); sentinel != nil && !errors.Is(err, sentinel) {
		return fmt.Errorf("%s: %w: %w", op, sentinel, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// classify returns the domain sentinel matching err, or nil when err is not a
// recognised store failure.
func classify(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return domain.ErrConflict
		case pgErr.Code == pgForeignKeyViolation:
			return domain.ErrNotFound
		case strings.HasPrefix(pgErr.Code, pgClassInsufficient):
			return domain.ErrRateLimited
		case strings.HasPrefix(pgErr.Code, pgClassConnection),
			strings.HasPrefix(pgErr.Code, pgClassInvalidAuth),
			pgErr.Code == pgAdminShutdown,
			pgErr.Code == pgCannotConnectNow:
			return domain.ErrUnavailable
		}
		return nil
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return domain.ErrUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.ErrUnavailable
	}
	return nil
}
