package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check did not finish before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoDocument indicates no document is available to check.
	ErrNoDocument = errors.New("health: no document loaded")
)
