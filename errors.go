package agegraph

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/flancast90/agegraph-go/internal/agtype"
	"github.com/flancast90/agegraph-go/internal/sqlgen"
)

// Error kinds. Use errors.Is to test an error returned by this package.
var (
	ErrNotFound       = errors.New("not found")
	ErrSyntax         = errors.New("syntax error")
	ErrSchemaMismatch = errors.New("result schema mismatch")
	ErrConnection     = errors.New("connection error")
	ErrTimeout        = errors.New("timeout")
	ErrInvalidName    = sqlgen.ErrInvalidName
	ErrInvalidQuery   = sqlgen.ErrInvalidQuery
	ErrDecode         = errors.New("decode error")
	ErrInitialization = errors.New("extension not initialized")
	ErrClosed         = errors.New("client closed")
	ErrQuery          = errors.New("query failed")
)

// Error describes a failed operation.
//
// The message carries the operation, graph, kind and SQLSTATE only. The
// underlying driver error, which may quote parts of the statement, is
// reachable through Unwrap.
type Error struct {
	Op    string
	Graph string
	Kind  error
	Code  string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("agegraph: ")
	b.WriteString(e.Op)
	if e.Graph != "" {
		fmt.Fprintf(&b, " graph %q", e.Graph)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Code != "" {
		b.WriteString(" (SQLSTATE ")
		b.WriteString(e.Code)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the error kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// PostgreSQL error codes used for classification.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeInvalidSchemaName = "3F000"
	codeUndefinedTable    = "42P01"
	codeUndefinedObject   = "42704"
	codeUndefinedFunction = "42883"
	codeDuplicateSchema   = "42P06"
	codeSyntaxError       = "42601"
	codeDatatypeMismatch  = "42804"
	codeQueryCanceled     = "57014"
	codeUndefinedFile     = "58P01"
)

// wrapError classifies err. Errors already carrying a kind are returned as is.
func wrapError(op, graph string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return newError(op, graph, classify(err), err)
}

func newError(op, graph string, kind, err error) *Error {
	e := &Error{Op: op, Graph: graph, Kind: kind, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		e.Code = pgErr.Code
	}
	return e
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	var syntaxErr *agtype.SyntaxError
	var connectErr *pgconn.ConnectError
	var netErr net.Error

	switch {
	case errors.Is(err, sqlgen.ErrInvalidName):
		return ErrInvalidName
	case errors.Is(err, sqlgen.ErrInvalidQuery):
		return ErrInvalidQuery
	case errors.As(err, &syntaxErr), errors.Is(err, ErrDecode):
		return ErrDecode
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.As(err, &pgErr):
		return classifyCode(pgErr)
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return ErrTimeout
	case errors.As(err, &connectErr), errors.As(err, &netErr):
		return ErrConnection
	default:
		return ErrQuery
	}
}

func classifyCode(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case codeInvalidSchemaName, codeUndefinedTable, codeUndefinedObject:
		return ErrNotFound
	case codeSyntaxError:
		return ErrSyntax
	case codeDatatypeMismatch:
		return ErrSchemaMismatch
	case codeUndefinedFunction, codeUndefinedFile:
		return ErrInitialization
	case codeQueryCanceled:
		return ErrTimeout
	}

	switch {
	case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
		return ErrConnection
	case strings.Contains(pgErr.Message, "does not exist"):
		return ErrNotFound
	}
	return ErrQuery
}

func isAlreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeDuplicateSchema || strings.Contains(pgErr.Message, "already exists")
}
