package auth

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that adds a bearer token to requests
// that do not already carry an Authorization header.
//
// Usage:
//
//	client := &http.Client{Transport: &auth.Transport{Source: auth.StaticToken(tok)}}
type Transport struct {
	// Source yields the token. A nil Source passes requests through untouched.
	Source TokenSource

	// Base is the underlying transport.
	// Default: http.DefaultTransport
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Source == nil || req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}

	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("auth: bearer token: %w", err)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}
