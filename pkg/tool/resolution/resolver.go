// Package resolution turns a requested tool version into a concrete one.
package resolution

import (
	"maps"
	"strings"

	"toolsmith/pkg/platform"
)

// Requests that ask for the default version of a tool.
const (
	SentinelDefault = "default"
	SentinelTrue    = "true"
)

// VersionRequest is one ask for a tool. It is not modified by resolution.
type VersionRequest struct {
	Tool      string
	Requested string
	// Platform is one of platform.Linux, platform.Darwin or platform.Windows.
	Platform string
	// Distro is the os-release ID of a Linux host, e.g. "ubuntu".
	Distro string
	// OSRelease holds the numeric host release, e.g. [22 4].
	OSRelease []int
}

// Defaults holds the version tables consulted for default requests.
type Defaults struct {
	// Versions maps a tool to its platform independent default.
	Versions map[string]string
	// Linux maps a tool to OS major release -> version. It takes precedence on Linux.
	Linux map[string]map[int]string
	// LinuxDistro restricts a tool's Linux table to hosts of one distribution,
	// since release numbers only mean something within a distribution.
	// Tools without an entry use their table on every distribution.
	LinuxDistro map[string]string
}

// BuiltinDefaults returns the tables shipped with toolsmith.
func BuiltinDefaults() Defaults {
	return Defaults{
		Versions: map[string]string{
			"llvm":  "18",
			"cmake": "3.30.2",
			"ninja": "1.12.1",
			"task":  "3.38.0",
			"meson": "1.5.1",
			"conan": "2.6.0",
			"gcovr": "7.2",
		},
		Linux: map[string]map[int]string{
			"gcc": {
				18: "7",
				20: "9",
				22: "11",
				24: "13",
			},
		},
		LinuxDistro: map[string]string{
			"gcc": "ubuntu",
		},
	}
}

// Overlay returns d with the entries of o replacing its own. Linux tables are
// replaced per tool, not merged per release, and a replaced table drops the
// distribution restriction of the one it replaces unless o sets its own.
func (d Defaults) Overlay(o Defaults) Defaults {
	out := Defaults{
		Versions:    maps.Clone(d.Versions),
		Linux:       maps.Clone(d.Linux),
		LinuxDistro: maps.Clone(d.LinuxDistro),
	}
	if out.Versions == nil {
		out.Versions = map[string]string{}
	}
	if out.Linux == nil {
		out.Linux = map[string]map[int]string{}
	}
	if out.LinuxDistro == nil {
		out.LinuxDistro = map[string]string{}
	}
	maps.Copy(out.Versions, o.Versions)
	for tool, table := range o.Linux {
		out.Linux[tool] = table
		delete(out.LinuxDistro, tool)
	}
	maps.Copy(out.LinuxDistro, o.LinuxDistro)
	return out
}

// IsDefault reports whether requested asks for the default version.
func IsDefault(requested string) bool {
	switch strings.TrimSpace(requested) {
	case "", SentinelDefault, SentinelTrue:
		return true
	}
	return false
}

// Resolver resolves version requests against a set of default tables.
type Resolver struct {
	defaults *Defaults
}

// NewResolver returns a Resolver reading from defaults. The tables must not be
// mutated while the resolver is in use.
func NewResolver(defaults *Defaults) *Resolver {
	if defaults == nil {
		builtin := BuiltinDefaults()
		defaults = &builtin
	}
	return &Resolver{defaults: defaults}
}

// Resolve returns the concrete version for req. An empty result means the
// caller should let the installing strategy pick.
func (r *Resolver) Resolve(req VersionRequest) string {
	if !IsDefault(req.Requested) {
		return strings.TrimSpace(req.Requested)
	}

	if platform.NormalizeOS(req.Platform) == platform.Linux {
		if table, ok := r.defaults.Linux[req.Tool]; ok && r.linuxTableApplies(req) {
			return pickRelease(table, req.OSRelease)
		}
	}

	return r.defaults.Versions[req.Tool]
}

func (r *Resolver) linuxTableApplies(req VersionRequest) bool {
	distro, scoped := r.defaults.LinuxDistro[req.Tool]
	return !scoped || strings.EqualFold(distro, req.Distro)
}

// pickRelease returns the entry with the largest release key not above the host major.
func pickRelease(table map[int]string, osRelease []int) string {
	if len(osRelease) == 0 {
		return ""
	}
	host := osRelease[0]
	best, found := 0, false
	for release := range table {
		if release <= host && (!found || release > best) {
			best, found = release, true
		}
	}
	if !found {
		return ""
	}
	return table[best]
}
