// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package vectorindex

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidVector is returned when a vector holds NaN or infinite components.
	ErrInvalidVector = errors.New("vector has non-finite components")

	// ErrUnknownRecord is reported when an operation references an id the index does not hold.
	ErrUnknownRecord = errors.New("unknown record")

	// ErrEmptyID is returned when a record is inserted without an id.
	ErrEmptyID = errors.New("record id is required")

	// ErrPersistence wraps failures of the snapshot store.
	ErrPersistence = errors.New("snapshot persistence failed")
)
