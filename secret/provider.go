package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the variable's value or ErrMissingEnv.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, ref)
	}
	return v, nil
}

// FileProvider resolves a reference as a file path.
type FileProvider struct{}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve returns the file's content without trailing line breaks.
func (FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	data, err := os.ReadFile(ref) //nolint:gosec // path comes from operator config
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
