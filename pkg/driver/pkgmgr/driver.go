// Package pkgmgr abstracts the host's native package manager.
package pkgmgr

import (
	"context"
	"errors"
	"strings"

	"toolsmith/pkg/driver"
)

// ErrPackageNotFound is returned by Lookup when the manager does not know the
// package, or does not carry the requested version of it.
var ErrPackageNotFound = errors.New("package not found")

// Package names a native package. An empty Version lets the manager pick.
type Package struct {
	Name    string
	Version string
}

func (p Package) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "@" + p.Version
}

// Driver installs packages with the host's native package manager.
type Driver interface {
	// ID names the manager, e.g. "apt" or "brew".
	ID() string
	// Lookup returns pkg with Version set to the exact version the manager would install.
	Lookup(ctx context.Context, pkg Package) (Package, error)
	// Install installs packages previously returned by Lookup.
	Install(ctx context.Context, pkgs ...Package) error
}

// Prefixer is implemented by managers that install packages outside PATH,
// like keg-only Homebrew formulae.
type Prefixer interface {
	// Prefix returns the directory pkg was installed into. Executables live in its bin.
	Prefix(ctx context.Context, pkg Package) (string, error)
}

// Get returns the selected package manager.
func Get(ctx context.Context) (Driver, error) {
	return driver.Get[Driver](ctx)
}

// MatchVersion returns the first candidate matching want. Candidates are expected newest first.
// An empty want matches the first candidate.
func MatchVersion(candidates []string, want string) (string, bool) {
	for _, c := range candidates {
		if VersionMatches(c, want) {
			return c, true
		}
	}
	return "", false
}

// VersionMatches reports whether a package version satisfies a requested version prefix.
// "11" matches "11.4.0-1ubuntu1" and "1:11.2" but not "110.0".
func VersionMatches(have, want string) bool {
	if want == "" {
		return have != ""
	}
	if _, after, ok := strings.Cut(have, ":"); ok {
		have = after
	}
	if !strings.HasPrefix(have, want) {
		return false
	}
	if len(have) == len(want) {
		return true
	}
	switch have[len(want)] {
	case '.', '-', '+', '~', '_':
		return true
	}
	return false
}
