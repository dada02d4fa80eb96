// Package store defines the persistence-facing types and errors shared by
// store implementations and their callers.
package store

import "errors"

// Sentinel errors. Implementations map driver-level failures onto these so
// callers can branch with errors.Is without knowing the backend.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when an insert violates a uniqueness rule.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConflict is returned when a write contradicts existing state in a
	// way the caller may be able to resolve (e.g. a slug collision naming a
	// different record).
	ErrConflict = errors.New("conflicting record")
)
