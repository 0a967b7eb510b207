// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import "errors"

// These errors can be returned by functions in this package. They are
// wrapped with fmt.Errorf before being returned; use [errors.Is] or
// [errors.As] to check for the underlying error.
var (
	// ErrDuplicateKey is returned by a builder when the input mapping
	// contains the same key more than once.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound names the not-found outcome. Lookup and Step do not
	// return it: they report a missing key or transition through their
	// boolean result, with a nil error.
	ErrNotFound = errors.New("not found")

	// ErrCorruptFormat is returned by Deserialize/Open when the backing
	// byte stream is truncated, fails its checksum, or otherwise does not
	// describe a valid serialized trie.
	ErrCorruptFormat = errors.New("corrupt trie format")

	// ErrOutOfRange is returned when a storage access names an index
	// outside the bounds of the underlying arrays. This indicates an
	// internal bug: well-formed tries never produce out-of-range
	// transitions.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidOperation is returned when a caller misuses a builder or
	// a read-only view, such as attempting to mutate the storage of a trie
	// obtained from Open.
	ErrInvalidOperation = errors.New("invalid operation")
)
