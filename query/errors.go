package query

import "errors"

// Sentinel errors for query execution.
var (
	// ErrInvalidArgument indicates unusable query parameters. Nothing is
	// evaluated or cached.
	ErrInvalidArgument = errors.New("query: invalid argument")

	// ErrEvaluation wraps a failure from the document runtime. The runtime's
	// error stays in the chain.
	ErrEvaluation = errors.New("query: document evaluation failed")
)
