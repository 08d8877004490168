// Package envsource presents connection URLs held in environment variables
// (DATABASE_URL, REDIS_URL and friends) as source objects for the binding
// registry. It is the twelve-factor counterpart to the compose source family.
package envsource

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Suffix is the environment key suffix that marks a connection URL variable.
const Suffix = "_URL"

// Var is one connection URL environment variable.
type Var struct {
	// Key is the full environment variable name, e.g. "DATABASE_URL".
	Key string

	// Value is the raw URL string.
	Value string
}

// ServiceName derives a service identifier from the variable name:
// "DATABASE_URL" becomes "database". It satisfies the source contract shared
// with compose services.
func (v *Var) ServiceName() string {
	name := strings.TrimSuffix(v.Key, Suffix)
	return strings.ToLower(name)
}

// URL parses the variable's value.
func (v *Var) URL() (*url.URL, error) {
	u, err := url.Parse(v.Value)
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid URL: %w", v.Key, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%s has no URL scheme", v.Key)
	}
	return u, nil
}

// Collect extracts connection URL variables from an environment in the
// os.Environ "KEY=value" form. Only keys ending in Suffix and carrying a
// non-empty value are kept. Results are sorted by key so collection order is
// deterministic regardless of environment iteration order.
func Collect(environ []string) []*Var {
	var vars []*Var
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || value == "" {
			continue
		}
		if !strings.HasSuffix(key, Suffix) || key == Suffix {
			continue
		}
		vars = append(vars, &Var{Key: key, Value: value})
	}

	sort.Slice(vars, func(i, j int) bool { return vars[i].Key < vars[j].Key })
	return vars
}
