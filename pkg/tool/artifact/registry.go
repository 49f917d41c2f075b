package artifact

import (
	"strings"

	"toolsmith/pkg/semver"
)

// Registry is the set of released specific versions of a tool together
// with their "major" and "major.minor" aliases.
type Registry struct {
	versions []string
	aliases  map[string][]string
}

// NewRegistry builds a Registry from specific versions in any order.
func NewRegistry(versions ...string) *Registry {
	sorted := append([]string(nil), versions...)
	semver.SortDescending(sorted)

	r := &Registry{versions: sorted, aliases: map[string][]string{}}
	for _, v := range sorted {
		parts := strings.Split(v, ".")
		for i := 1; i <= len(parts); i++ {
			alias := strings.Join(parts[:i], ".")
			r.aliases[alias] = append(r.aliases[alias], v)
		}
	}
	return r
}

// Versions returns every specific version, newest first.
func (r *Registry) Versions() []string {
	return append([]string(nil), r.versions...)
}

// Candidates returns the specific versions a request may refer to, newest first.
// A fully specified version the registry does not know is returned as its own
// single candidate, so releases newer than the table can still be probed.
func (r *Registry) Candidates(requested string) []string {
	requested = strings.TrimPrefix(strings.TrimSpace(requested), "v")
	if requested == "" {
		return nil
	}
	if c, ok := r.aliases[requested]; ok {
		return append([]string(nil), c...)
	}
	if strings.Count(requested, ".") >= 2 {
		return []string{requested}
	}
	return nil
}
