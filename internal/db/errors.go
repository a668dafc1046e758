package db

import "github.com/kailas-cloud/movierec/internal/domain"

// Op constants name the statement that failed, for error context.
const (
	OpOpen         = "OPEN"
	OpPing         = "PING"
	OpCreateTable  = "CREATE TABLE"
	OpInsert       = "INSERT"
	OpSelect       = "SELECT"
	OpUpdate       = "UPDATE"
	OpDelete       = "DELETE"
	OpRowsAffected = "ROWS AFFECTED"
)

// Error wraps an underlying error with the operation name for diagnostics.
// It unwraps to both the driver error and domain.ErrStorageUnavailable.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() []error {
	return []error{e.Err, domain.ErrStorageUnavailable}
}
