// Package auth supplies credentials for probes against protected endpoints.
//
// A TokenSource yields a bearer token: either a fixed token taken from the
// configuration, or a short-lived HS256 JWT minted from a shared secret.
// Transport attaches that token to every outgoing request.
package auth
