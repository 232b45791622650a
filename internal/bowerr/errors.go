// Package bowerr defines the sentinel error values shared across the
// vocabulary, scoring and database packages, matching the error kinds
// returned by the library's public operations.
package bowerr

import "errors"

var (
	// ErrEmptyInput is returned when a training set, query feature list,
	// or per-image feature list is empty where non-empty is required.
	// Surfaced from Create, Transform, Add, Query.
	ErrEmptyInput = errors.New("bowvoc: input is empty")

	// ErrNotTrained is returned when an operation is attempted against
	// an empty (never-built or never-loaded) vocabulary. Surfaced from
	// Transform, Query, Score.
	ErrNotTrained = errors.New("bowvoc: vocabulary is not trained")

	// ErrDirectIndexDisabled is returned by GetFeatureVector or
	// RetrieveFeatures when the database was opened without direct
	// indexing.
	ErrDirectIndexDisabled = errors.New("bowvoc: direct index disabled")

	// ErrOutOfRange is returned when a WordID, NodeID, or EntryID is not
	// present.
	ErrOutOfRange = errors.New("bowvoc: id out of range")

	// ErrSerialization is returned when persisted vocabulary or database
	// data is malformed or version-mismatched.
	ErrSerialization = errors.New("bowvoc: serialization error")

	// ErrNumeric is returned when a scoring computation produces a NaN
	// or infinite value; for well-formed inputs this should never
	// happen and indicates a bug.
	ErrNumeric = errors.New("bowvoc: numeric error in score computation")

	// ErrInvalidConfig is returned when a Config fails validation before
	// it is ever used to build a vocabulary or database.
	ErrInvalidConfig = errors.New("bowvoc: invalid configuration")

	// ErrClosed is returned when an operation is attempted on a database
	// or store that has already been closed.
	ErrClosed = errors.New("bowvoc: database is closed")
)
