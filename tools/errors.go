package tools

import "errors"

// Sentinel errors for tool dispatch.
var (
	// ErrUnknownTool indicates no tool is registered under the name.
	ErrUnknownTool = errors.New("tools: unknown tool")

	// ErrInvalidInput indicates the call's JSON arguments are malformed.
	ErrInvalidInput = errors.New("tools: invalid input")

	// ErrNoDocument indicates no document is loaded to query.
	ErrNoDocument = errors.New("tools: no document loaded")
)
