package secret

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

// ErrMissingEnv indicates a referenced environment variable is unset.
var ErrMissingEnv = errors.New("secret: missing environment variable")

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - `$VAR` and `${VAR}` are expanded via os.ExpandEnv.
//   - If `${VAR}` is present but VAR is unset, it returns ErrMissingEnv
//     naming every missing variable.
//   - `$$` emits a literal `$`.
func ExpandEnvStrict(s string) (string, error) {
	const dollar = "\x00DOMQUERY_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok && !slices.Contains(missing, match[1]) {
			missing = append(missing, match[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollar, "$"), nil
}
