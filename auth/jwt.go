package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields a bearer token for a request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: must not return an empty token with a nil error.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the token, or ErrMissingCredentials when it is empty.
func (s StaticToken) Token(_ context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrMissingCredentials
	}
	return string(s), nil
}

// JWTConfig configures the JWT token source.
type JWTConfig struct {
	// Secret is the HMAC key shared with the API.
	Secret []byte

	// Issuer is the iss claim.
	// Default: "stackcheck"
	Issuer string

	// Audience is the aud claim (optional).
	Audience string

	// Subject is the sub claim.
	// Default: "stackcheck-probe"
	Subject string

	// TTL is the token lifetime.
	// Default: 5 minutes
	TTL time.Duration

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time
}

// JWTSource mints HS256 tokens on demand.
type JWTSource struct {
	config JWTConfig
}

// NewJWTSource creates a JWT token source.
func NewJWTSource(config JWTConfig) *JWTSource {
	if config.Issuer == "" {
		config.Issuer = "stackcheck"
	}
	if config.Subject == "" {
		config.Subject = "stackcheck-probe"
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &JWTSource{config: config}
}

// Token signs a fresh token.
func (s *JWTSource) Token(_ context.Context) (string, error) {
	if len(s.config.Secret) == 0 {
		return "", ErrMissingCredentials
	}

	now := s.config.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   s.config.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return signed, nil
}

var (
	_ TokenSource = StaticToken("")
	_ TokenSource = (*JWTSource)(nil)
)
