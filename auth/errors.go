package auth

import "errors"

// Sentinel errors for authentication.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidKey         = errors.New("auth: invalid key configuration")
)
