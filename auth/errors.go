package auth

import "errors"

// Sentinel errors for credential handling.
var (
	// ErrMissingCredentials indicates no token or signing secret is configured.
	ErrMissingCredentials = errors.New("auth: missing credentials")

	// ErrSigningFailed indicates a JWT could not be signed.
	ErrSigningFailed = errors.New("auth: token signing failed")
)
