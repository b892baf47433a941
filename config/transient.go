package config

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotConnected is returned while the supervisor has no live connection.
var ErrNotConnected = errors.New("database not connected")

// TransientConnectionError marks a failure that is retried by reconnecting.
type TransientConnectionError struct {
	Err error
}

func (e *TransientConnectionError) Error() string {
	return fmt.Sprintf("transient connection error: %v", e.Err)
}

func (e *TransientConnectionError) Unwrap() error {
	return e.Err
}

// MySQL server error numbers treated as transient.
const (
	mysqlAccessDenied   = 1045
	mysqlTooManyConns   = 1040
	mysqlServerShutdown = 1053
)

// IsTransient reports whether err is a lost, refused or unauthenticated
// connection. Everything else is fatal to the supervisor.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transient *TransientConnectionError
	if errors.As(err, &transient) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}

	for _, target := range []error{
		ErrNotConnected,
		driver.ErrBadConn,
		mysql.ErrInvalidConn,
		io.EOF,
		io.ErrUnexpectedEOF,
		net.ErrClosed,
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EPIPE,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08: connection exception, 28: invalid authorization, 57P0x: shutdown.
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "28") ||
			strings.HasPrefix(pgErr.Code, "57P0")
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlAccessDenied, mysqlTooManyConns, mysqlServerShutdown:
			return true
		}
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return pgconn.SafeToRetry(err)
}
