// Package storage defines the content-tree file abstraction for installment bodies.
package storage

import "errors"

// ErrNotExist is returned by Read when the requested file is absent.
var ErrNotExist = errors.New("storage: file does not exist")

// Provider is the interface for installment body file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the content root).
	// Returns ErrNotExist if the file is absent.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the content root),
	// replacing any existing file.
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the content root).
	// Deleting an absent file is not an error.
	Delete(path string) error
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
}
