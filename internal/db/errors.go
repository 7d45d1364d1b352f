package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// ErrNotConfigured signals a missing or invalid database connection
// target. Requests failing with it need an operator, not a retry.
var ErrNotConfigured = eris.New("database connection not configured")

// Kind classifies a query failure for error reporting.
type Kind int

const (
	// KindNone means no error.
	KindNone Kind = iota
	// KindBadCredentials covers missing configuration, authentication
	// failures, and nonexistent databases.
	KindBadCredentials
	// KindMissingTable means the arrest_logs table is absent or
	// inaccessible.
	KindMissingTable
	// KindTransient covers everything else: timeouts, malformed queries,
	// connection drops. Requests are read-only and idempotent, so callers
	// may retry the whole request.
	KindTransient
)

// Postgres error codes that map onto the taxonomy.
const (
	pgUndefinedTable  = "42P01"
	pgInvalidSchema   = "3F000"
	pgInvalidCatalog  = "3D000"
	pgAuthClassPrefix = "28" // invalid_authorization_specification class
)

// KindOf classifies an error from either store driver.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrNotConfigured) {
		return KindBadCredentials
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUndefinedTable || pgErr.Code == pgInvalidSchema:
			return KindMissingTable
		case pgErr.Code == pgInvalidCatalog || strings.HasPrefix(pgErr.Code, pgAuthClassPrefix):
			return KindBadCredentials
		default:
			return KindTransient
		}
	}

	// modernc.org/sqlite surfaces missing tables as plain error text.
	if strings.Contains(err.Error(), "no such table") {
		return KindMissingTable
	}

	return KindTransient
}
