// Package models defines the item data model shared by the storage and
// action-execution layers: items and their identity, store paths,
// provenance records, and the error taxonomy.
package models

import "fmt"

// InvalidInputError indicates a caller-correctable problem with the
// arguments to an operation: wrong count, wrong kind, or a missing
// required field. It never implies store corruption.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string { return e.Msg }

// Is matches any InvalidInputError target, so errors.Is can test for the
// whole category.
func (e *InvalidInputError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}

// NewInvalidInput builds an InvalidInputError with a formatted message.
func NewInvalidInput(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Msg: fmt.Sprintf(format, args...)}
}

// PreconditionError indicates an action's precondition was not satisfied
// by one of its inputs. It is a subtype of invalid input: errors.Is
// matches it against a *InvalidInputError target via Is below.
type PreconditionError struct {
	Precondition string
	Path         StorePath
}

func (e *PreconditionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("precondition %q not satisfied by %s", e.Precondition, e.Path)
	}
	return fmt.Sprintf("precondition %q not satisfied", e.Precondition)
}

// Is makes PreconditionError match InvalidInputError targets, so callers
// can treat both as caller-correctable.
func (e *PreconditionError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}

// InvalidStateError indicates the store or a requested path is not in a
// state that permits the operation (e.g. no selection history yet).
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// NewInvalidState builds an InvalidStateError with a formatted message.
func NewInvalidState(format string, args ...any) *InvalidStateError {
	return &InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}

// SkippableError indicates a per-item problem during a bulk scan
// (unreadable file, unrecognized extension) that should not abort the
// whole operation. The offending item is logged and excluded.
type SkippableError struct {
	Path StorePath
	Msg  string
	Err  error
}

func (e *SkippableError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return e.Msg
}

func (e *SkippableError) Unwrap() error { return e.Err }

// PersistError indicates an unexpected filesystem failure during a save
// or archive. Any partially-applied step has been rolled back before this
// error is surfaced; it is fatal to the operation.
type PersistError struct {
	Op   string
	Path StorePath
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
