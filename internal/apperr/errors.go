// Package apperr defines the sentinel errors shared across Feder components.
package apperr

import "errors"

var (
	// ErrCancelled marks a picker dismissed by the user. Callers treat it
	// as a no-op outcome, never as a failure.
	ErrCancelled = errors.New("cancelled")

	// ErrPermissionDenied marks a project reference whose read/write
	// access could not be (re)granted.
	ErrPermissionDenied = errors.New("permission denied")

	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
