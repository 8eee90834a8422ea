// Package core holds the types shared by every layer of the solver:
// the error taxonomy of spec §7, solver-wide configuration, and the
// dense identifiers used throughout (VarId, DecLvl, TheoryId).
package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// ModelError reports a malformed model detected before search begins:
// an empty initial domain, a duplicate symbol, an inconsistent
// reification. It is surfaced synchronously to the model-building
// call site; no partial state commits.
type ModelError struct {
	Op      string
	Message string
	cause   error
}

func (e *ModelError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("model error in %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("model error: %s", e.Message)
}

func (e *ModelError) Unwrap() error { return e.cause }

// NewModelError builds a ModelError with no wrapped cause.
func NewModelError(op, message string) *ModelError {
	return &ModelError{Op: op, Message: message}
}

// WrapModelError wraps an underlying error as a ModelError, preserving
// the cause chain for errors.Is/errors.As and for logging.
func WrapModelError(op string, cause error) *ModelError {
	return &ModelError{Op: op, Message: cause.Error(), cause: errors.Wrap(cause, op)}
}

// InvariantViolation marks a bug in the solver or in a plugged-in
// theory: an explanation that does not entail its literal, a watch
// list left inconsistent after backtracking, and similar precondition
// breaches. Fatal; documented as a precondition breach rather than a
// recoverable error.
type InvariantViolation struct {
	Component string
	Message   string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Component, e.Message)
}

// Violation panics with an InvariantViolation. Used at internal
// precondition checks that must never fire in a correct build.
func Violation(component, format string, args ...interface{}) {
	panic(&InvariantViolation{Component: component, Message: fmt.Sprintf(format, args...)})
}

// Cancelled is returned by Solve when the caller's interrupt token
// fired before a verdict was reached. The solver remains usable for a
// later call: no committed state is lost.
var Cancelled = errors.New("solve cancelled by interrupt")
