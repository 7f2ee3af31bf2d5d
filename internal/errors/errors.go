package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/careminder/internal/logger"
)

// ErrInvalidCode is the single user-facing error for a rejected import,
// whether the code could not be decoded or could not be stored.
var ErrInvalidCode = stderrors.New("invalid code")

// DecodeError reports a payload that is not valid JSON matching the
// reminder schema, or a deep link without a data parameter.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrInvalidCode, e.Err} }

// PersistenceError reports a datastore failure during an import.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrInvalidCode, e.Err} }

// SchedulingError reports a trigger that could not be registered. It is
// logged and never shown to the user.
type SchedulingError struct {
	ReminderID int64
	Err        error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("schedule reminder %d: %v", e.ReminderID, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
