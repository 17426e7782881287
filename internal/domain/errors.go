package domain

import "errors"

var (
	// ErrExternalFetch is returned when the upstream catalog is unreachable or answers with a non-success status
	ErrExternalFetch = errors.New("external catalog fetch failed")

	// ErrPersistence is returned when a write to the product store fails
	ErrPersistence = errors.New("product store write failed")

	// ErrQuery is returned when the stats aggregation cannot be read from the store
	ErrQuery = errors.New("stats query failed")
)
