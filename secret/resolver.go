package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Resolver resolves secret references using registered providers.
//
// Values with the prefix "secretref:" are resolved via providers.
// Other values are returned unchanged.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver creates a resolver. In strict mode a provider returning an
// empty value is an error.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{
		providers: make(map[string]Provider),
		strict:    strict,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// DefaultResolver returns a strict resolver with the env and file providers.
// The env provider reads through lookup; nil means os.LookupEnv.
func DefaultResolver(lookup LookupFunc) *Resolver {
	return NewResolver(true, EnvProvider{Lookup: lookup}, FileProvider{})
}

// Register registers a provider with the resolver.
func (r *Resolver) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[provider.Name()] = provider
}

// ResolveValue resolves value if it is a secret reference.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	providerName, ref, ok := ParseSecretRef(value)
	if !ok {
		if strings.HasPrefix(value, secretRefPrefix) {
			return "", fmt.Errorf("secret: malformed reference %q", value)
		}
		return value, nil
	}
	if r == nil {
		return "", errors.New("secret: no resolver configured")
	}

	provider, ok := r.providers[providerName]
	if !ok {
		return "", fmt.Errorf("secret: provider %q is not registered", providerName)
	}
	resolved, err := provider.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && resolved == "" {
		return "", fmt.Errorf("secret: provider %q returned empty value", providerName)
	}
	return resolved, nil
}

const secretRefPrefix = "secretref:"

// ParseSecretRef parses a full secret reference of the form:
//
//	secretref:<provider>:<ref>
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	if !strings.HasPrefix(value, secretRefPrefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(value, secretRefPrefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
