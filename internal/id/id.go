package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ShortLen is the length of short ids used as public Saga identifiers.
const ShortLen = 8

// shortAlphabet matches the characters accepted in short-id URL segments.
const shortAlphabet = "23456789abcdefghijkmnopqrstuvwxyz"

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "story-V1StGXR8_Z5jdHi6B-myT")
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when you're certain the system entropy is available,
// or when failure should crash the program (e.g., during initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Short creates an 8-character opaque id from a reduced, unambiguous
// alphabet (no 0/O/1/l). These are used as public Saga identifiers, so
// they need to read cleanly in a URL. Collisions are possible at this
// length; callers retry with a fresh id on a primary-key conflict.
func Short() (string, error) {
	id, err := gonanoid.Generate(shortAlphabet, ShortLen)
	if err != nil {
		return "", fmt.Errorf("generate short id: %w", err)
	}
	return id, nil
}
