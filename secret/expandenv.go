package secret

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
)

var bracedVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

const literalDollar = "\x00stackcheck-dollar\x00"

// LookupFunc reads one variable, reporting whether it is set.
type LookupFunc func(key string) (string, bool)

// Expand substitutes $VAR and ${VAR} in s using lookup. A braced reference
// to an unset variable is an error listing every such name, sorted. An
// unset bare $VAR expands to the empty string. $$ is a literal dollar.
func Expand(s string, lookup LookupFunc) (string, error) {
	s = strings.ReplaceAll(s, "$$", literalDollar)

	missing := map[string]bool{}
	for _, m := range bracedVar.FindAllStringSubmatch(s, -1) {
		if _, ok := lookup(m[1]); !ok {
			missing[m[1]] = true
		}
	}
	if len(missing) > 0 {
		names := slices.Sorted(maps.Keys(missing))
		return "", fmt.Errorf("secret: missing required environment variables: %s", strings.Join(names, ", "))
	}

	s = os.Expand(s, func(key string) string {
		v, _ := lookup(key)
		return v
	})
	return strings.ReplaceAll(s, literalDollar, "$"), nil
}
