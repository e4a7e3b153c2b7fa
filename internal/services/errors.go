// Package services defines the business logic of the relay: the journal that
// records exchanges, prompt construction, the per-event pipeline, and the
// read-side record queries. This file centralizes service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrPersistence wraps any failure to write to the record store. The
	// pipeline logs it and continues.
	ErrPersistence = errors.New("persistence failure")

	// ErrRecordNotFound indicates that the requested record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrPersistenceDisabled is returned by read queries when no database is
	// configured.
	ErrPersistenceDisabled = errors.New("persistence is not configured")
)
