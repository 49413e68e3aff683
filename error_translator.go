package sqlqueue

import (
	"database/sql/driver"
	"errors"
	"strings"
)

// ErrorTranslator is implemented by backends to extract the SQL-state and message from their native errors
type ErrorTranslator interface {
	// Translate returns the SQL-state and message of the passed (non-nil) error
	//
	// an empty sqlState is replaced with DefaultSQLState
	Translate(err error) (sqlState string, message string)
}

// ErrorTranslatorFunc adapts a func to an ErrorTranslator
type ErrorTranslatorFunc func(error) (string, string)

func (f ErrorTranslatorFunc) Translate(err error) (string, string) {
	return f(err)
}

var defaultErrorTranslator ErrorTranslator = ErrorTranslatorFunc(func(err error) (string, string) {
	return DefaultSQLState, err.Error()
})

// translateError converts any error into an *Error
//
// errors that are already an *Error pass through untouched
func translateError(err error, kind ErrorKind, driverName string, translator ErrorTranslator) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	if translator == nil {
		translator = defaultErrorTranslator
	}
	state, msg := translator.Translate(err)
	if state == "" {
		state = DefaultSQLState
	}
	if kind == StatementError && (strings.HasPrefix(state, "08") || errors.Is(err, driver.ErrBadConn)) {
		kind = ConnectionError
	}
	return &Error{
		Kind:     kind,
		Driver:   driverName,
		SQLState: state,
		Message:  msg,
		cause:    err,
	}
}
