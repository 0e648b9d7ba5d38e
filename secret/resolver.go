package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for reference resolution.
var (
	ErrUnknownProvider = errors.New("secret: provider not registered")
	ErrEmptySecret     = errors.New("secret: resolved to an empty value")
)

// Resolver resolves values using registered providers.
//
// Contract:
//   - Concurrency: safe for concurrent use once constructed.
//   - Errors: an empty resolved value is an error; callers never receive "".
type Resolver struct {
	providers map[string]Provider
}

// NewResolver creates a resolver over providers. With none, the env and
// file providers are registered.
func NewResolver(providers ...Provider) *Resolver {
	if len(providers) == 0 {
		providers = []Provider{EnvProvider{}, FileProvider{}}
	}
	r := &Resolver{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// ResolveValue expands environment variables in value, then resolves it
// through a provider if it is a secret reference.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}

	resolved := expanded
	if name, ref, ok := ParseSecretRef(expanded); ok {
		p, found := r.providers[name]
		if !found {
			return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
		if resolved, err = p.Resolve(ctx, ref); err != nil {
			return "", err
		}
	}

	if strings.TrimSpace(resolved) == "" {
		return "", ErrEmptySecret
	}
	return resolved, nil
}

// ResolveSlice resolves each value in values.
func (r *Resolver) ResolveSlice(ctx context.Context, values []string) ([]string, error) {
	resolved := make([]string, len(values))
	for i, v := range values {
		out, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		resolved[i] = out
	}
	return resolved, nil
}

// ParseSecretRef parses a full secret reference of the form:
//
//	secretref:<provider>:<ref>
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	const prefix = "secretref:"
	if !strings.HasPrefix(value, prefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(value, prefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
