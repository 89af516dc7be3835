package dataapi

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyStatement     = errors.New("sql statement is empty")
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrMissingParameter   = errors.New("missing parameter")
)

// ExecutionError is the only error kind returned by StatementExecutor. It
// wraps whatever the transport raised so callers never depend on the remote
// service's own error types.
type ExecutionError struct {
	Op  string
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("data access: %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsExecutionError reports whether err is, or wraps, an *ExecutionError.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr)
}
