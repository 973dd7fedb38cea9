package conduit

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Outcome taxonomy. Callers branch on these with errors.Is; raw driver
// errors never escape the store layer.
var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("uniqueness conflict")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("not authorized")
	ErrTimeout          = errors.New("operation timeout")
	ErrCanceled         = errors.New("operation canceled")
	ErrConnectionFailed = errors.New("database connection failed")
)

// Error provides detailed error information
type Error struct {
	Op         string // Operation that failed
	Table      string // Table involved
	Err        error  // Underlying error
	Constraint string // Constraint name (if applicable)
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("conduit: %s", e.Op))

	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	}

	if e.Constraint != "" {
		parts = append(parts, fmt.Sprintf("constraint=%s", e.Constraint))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PostgreSQL SQLSTATE classes relevant to the taxonomy.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	pqNotNullViolation    = "23502"
)

// translateDBError converts PostgreSQL driver errors into taxonomy errors.
// A *pq.Error SQLSTATE is authoritative; message matching covers errors the
// driver surfaces as plain strings (context, network).
func translateDBError(err error, op, table string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Table: table, Err: ErrNotFound}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return &Error{Op: op, Table: table, Err: ErrConflict, Constraint: pqErr.Constraint}
		case pqForeignKeyViolation, pqCheckViolation, pqNotNullViolation:
			return &Error{Op: op, Table: table, Err: ErrValidation, Constraint: pqErr.Constraint}
		}
	}

	errStr := err.Error()

	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return &Error{Op: op, Table: table, Err: ErrConflict}
	}

	if strings.Contains(errStr, "context deadline exceeded") {
		return &Error{Op: op, Table: table, Err: ErrTimeout}
	}

	if strings.Contains(errStr, "context canceled") {
		return &Error{Op: op, Table: table, Err: ErrCanceled}
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "broken pipe") {
		return &Error{Op: op, Table: table, Err: ErrConnectionFailed}
	}

	return &Error{Op: op, Table: table, Err: err}
}

func notFound(op, table string) error {
	return &Error{Op: op, Table: table, Err: ErrNotFound}
}

func validationErr(op string, format string, args ...interface{}) error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))}
}

func unauthorized(op string, format string, args ...interface{}) error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))}
}

// IsNotFound reports whether err is a natural-key lookup miss.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsValidation reports whether err is caller-supplied data violating an invariant.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsUnauthorized reports whether err is a write attempted by a non-owner.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
