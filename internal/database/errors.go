package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// Error kinds returned by Execute
var (
	ErrConnection = errors.New("data source unreachable")
	ErrExecution  = errors.New("statement rejected")
)

// ConnectionError reports that the data source could not be reached
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Driver, ErrConnection, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrConnection) match
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// ExecutionError reports a statement the data source rejected.
// Message is the engine's own message; Code is the engine's error code
// when the driver exposes one.
type ExecutionError struct {
	TemplateID string
	Code       string
	Message    string
	Err        error
}

func (e *ExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("template %q: %s (code %s): %s", e.TemplateID, ErrExecution, e.Code, e.Message)
	}
	return fmt.Sprintf("template %q: %s: %s", e.TemplateID, ErrExecution, e.Message)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExecution) match
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

// classify turns a driver error into a ConnectionError or ExecutionError
func classify(driverName, templateID string, err error) error {
	if isConnectionFailure(err) {
		return &ConnectionError{Driver: driverName, Err: err}
	}
	code, msg := engineDetail(err)
	return &ExecutionError{TemplateID: templateID, Code: code, Message: msg, Err: err}
}

// isConnectionFailure reports errors that mean the connection, not the
// statement, is at fault
func isConnectionFailure(err error) bool {
	// context.DeadlineExceeded satisfies net.Error
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

// engineDetail extracts the engine's code and message where the driver
// has a structured error type
func engineDetail(err error) (code, message string) {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return strconv.Itoa(int(mysqlErr.Number)), mysqlErr.Message
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Message
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.Message
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return strconv.Itoa(sqliteErr.Code()), sqliteErr.Error()
	}

	return "", err.Error()
}
