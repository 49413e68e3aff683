package sqlqueue

import (
	"errors"
	"fmt"
)

// DefaultSQLState is the SQL-state used when a backend does not report one
const DefaultSQLState = "HY000"

var (
	// ErrNoMoreRows is returned by the Result fetch methods once the cursor is exhausted
	ErrNoMoreRows = errors.New("no more rows")
	// ErrClosed is returned by any Driver operation after Driver.Close
	ErrClosed = errors.New("driver is closed")
	// ErrNoLastInsertId is returned by backends that cannot report a last inserted id
	ErrNoLastInsertId = errors.New("last insert id is not available")
)

// ErrorKind classifies an Error
type ErrorKind int

const (
	// StatementError - the backend rejected a statement in a batch
	StatementError ErrorKind = iota
	// ConnectionError - the backend could not be reached, or the connection was lost
	//
	// a Driver that has seen a ConnectionError while connecting cannot be reused
	ConnectionError
	// MisuseError - the API was used incorrectly (e.g. seeking outside of a result)
	MisuseError
	// ConversionError - a cell value could not be coerced to its column type
	ConversionError
)

func (k ErrorKind) String() string {
	switch k {
	case StatementError:
		return "statement"
	case ConnectionError:
		return "connection"
	case MisuseError:
		return "misuse"
	case ConversionError:
		return "conversion"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the uniform error returned by Driver and Result
//
// backend native errors never reach the caller directly - they are translated into an Error
// (the native error is still available via errors.Unwrap)
type Error struct {
	Kind     ErrorKind
	Driver   string
	SQLState string
	Message  string
	cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: [%s] %s", e.Driver, e.SQLState, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, driverName string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Driver:   driverName,
		SQLState: DefaultSQLState,
		Message:  fmt.Sprintf(format, args...),
		cause:    cause,
	}
}
