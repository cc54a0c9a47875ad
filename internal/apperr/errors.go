// Package apperr defines the sentinel errors shared across the application.
package apperr

import "errors"

var (
	// ErrValidation marks rejected input: a missing required field, an
	// invalid or duplicate shortcut, or a reference to an unknown category.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an operation on an unknown item or category id, or a
	// record file that does not exist yet.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an attempt to delete or overwrite a builtin entity.
	ErrConflict = errors.New("conflict")

	// ErrCorruptData marks a stored record set that failed to parse into the
	// expected shape.
	ErrCorruptData = errors.New("corrupt data")
)
