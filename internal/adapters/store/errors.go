package store

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrStorageUnavailable wraps every backend failure: the durable
	// store is inaccessible and offline capability is gone. Callers
	// must warn the user rather than silently lose data.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrNotFound marks a missing record or expired cache entry.
	ErrNotFound = errors.New("record not found")
)
