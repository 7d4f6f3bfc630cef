// Package store holds sentinels shared by every store implementation so
// services can translate persistence misses uniformly.
package store

import (
	dErrors "herdwatch/pkg/domain-errors"
)

// ErrNotFound keeps store-specific 404s consistent across in-memory and
// PostgreSQL implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// ErrConflict signals a uniqueness violation (tag numbers, usernames,
// one-milk-record-per-day).
var ErrConflict = dErrors.New(dErrors.CodeConflict, "record already exists")
