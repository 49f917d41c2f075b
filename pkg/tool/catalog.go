package tool

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"toolsmith/pkg/driver/pkgmgr"
	"toolsmith/pkg/semver"
	"toolsmith/pkg/tool/artifact"
	"toolsmith/pkg/tool/strategy"
)

// Role selects the compiler activation applied after installation.
type Role string

const (
	RoleNone Role = ""
	RoleLLVM Role = "llvm"
	RoleGCC  Role = "gcc"
)

// Definition describes how a tool can be installed.
type Definition struct {
	Name    string
	Aliases []string
	Role    Role
	// Library tools are Python dependencies rather than applications.
	Library bool
	// Packages names the native packages per package manager. Nil skips the package manager.
	Packages strategy.PackagesFunc
	// Binary is looked up on PATH after a package manager install.
	Binary func(manager string, req strategy.Request) string
	// Locator builds the release archive locator. Nil skips archive downloads.
	Locator func(probe artifact.Probe) artifact.Locator
	// Pip is the PyPI package name. Empty skips pip.
	Pip string
}

var (
	catalogMu sync.RWMutex
	catalog   = map[string]*Definition{}
	aliases   = map[string]string{}
)

// Register adds a definition to the catalog, replacing one with the same name.
func Register(d *Definition) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	catalog[d.Name] = d
	for _, a := range d.Aliases {
		aliases[a] = d.Name
	}
}

// Lookup finds a definition by name or alias.
func Lookup(name string) (*Definition, error) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	d, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return d, nil
}

// Known returns the names of every registered tool, sorted.
func Known() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// same returns a PackagesFunc installing one package with the same name everywhere.
func same(name string) strategy.PackagesFunc {
	return func(manager string, req strategy.Request) []pkgmgr.Package {
		return []pkgmgr.Package{{Name: name, Version: req.Version}}
	}
}

// named returns a PackagesFunc from a manager -> package names table.
func named(table map[string][]string) strategy.PackagesFunc {
	return func(manager string, req strategy.Request) []pkgmgr.Package {
		var pkgs []pkgmgr.Package
		for _, name := range table[manager] {
			pkgs = append(pkgs, pkgmgr.Package{Name: name, Version: req.Version})
		}
		return pkgs
	}
}

func binary(name string) func(string, strategy.Request) string {
	return func(string, strategy.Request) string { return name }
}

// majorSuffix returns "-<major>" for versioned requests.
func majorSuffix(version string) string {
	if m := semver.Major(version); m > 0 {
		return "-" + strconv.Itoa(m)
	}
	return ""
}

func llvmPackages(manager string, req strategy.Request) []pkgmgr.Package {
	suffix := majorSuffix(req.Version)
	var names []string
	switch manager {
	case "apt":
		names = []string{"clang" + suffix, "lld" + suffix, "llvm" + suffix}
	case "dnf", "pacman":
		names = []string{"clang", "lld", "llvm"}
	case "brew":
		names = []string{"llvm" + strings.Replace(suffix, "-", "@", 1)}
	case "choco":
		names = []string{"llvm"}
	}
	pkgs := make([]pkgmgr.Package, len(names))
	for i, n := range names {
		pkgs[i] = pkgmgr.Package{Name: n, Version: req.Version}
	}
	return pkgs
}

func llvmBinary(manager string, req strategy.Request) string {
	if manager == "apt" {
		return "clang" + majorSuffix(req.Version)
	}
	return "clang"
}

func gccPackages(manager string, req strategy.Request) []pkgmgr.Package {
	suffix := majorSuffix(req.Version)
	var names []string
	switch manager {
	case "apt":
		names = []string{"gcc" + suffix, "g++" + suffix}
	case "dnf":
		names = []string{"gcc", "gcc-c++"}
	case "pacman":
		names = []string{"gcc"}
	case "brew":
		names = []string{"gcc" + strings.Replace(suffix, "-", "@", 1)}
	case "choco":
		names = []string{"mingw"}
	}
	pkgs := make([]pkgmgr.Package, len(names))
	for i, n := range names {
		pkgs[i] = pkgmgr.Package{Name: n, Version: req.Version}
	}
	return pkgs
}

func gccBinary(manager string, req strategy.Request) string {
	switch manager {
	case "apt", "brew":
		return "gcc" + majorSuffix(req.Version)
	}
	return "gcc"
}

func init() {
	Register(&Definition{
		Name:     "llvm",
		Aliases:  []string{"clang", "clang++", "clangd", "clang-format", "clang-tidy"},
		Role:     RoleLLVM,
		Packages: llvmPackages,
		Binary:   llvmBinary,
		Locator:  func(p artifact.Probe) artifact.Locator { return artifact.NewLLVM(p) },
	})
	Register(&Definition{
		Name:     "gcc",
		Aliases:  []string{"g++", "mingw"},
		Role:     RoleGCC,
		Packages: gccPackages,
		Binary:   gccBinary,
	})
	Register(&Definition{
		Name:     "cmake",
		Packages: same("cmake"),
		Binary:   binary("cmake"),
		Locator:  func(p artifact.Probe) artifact.Locator { return artifact.NewCMake(p) },
		Pip:      "cmake",
	})
	Register(&Definition{
		Name:    "ninja",
		Aliases: []string{"ninja-build"},
		Packages: named(map[string][]string{
			"apt":    {"ninja-build"},
			"dnf":    {"ninja-build"},
			"pacman": {"ninja"},
			"brew":   {"ninja"},
			"choco":  {"ninja"},
		}),
		Binary:  binary("ninja"),
		Locator: func(p artifact.Probe) artifact.Locator { return artifact.NewNinja(p) },
		Pip:     "ninja",
	})
	Register(&Definition{
		Name:     "meson",
		Packages: same("meson"),
		Binary:   binary("meson"),
		Pip:      "meson",
	})
	Register(&Definition{
		Name: "conan",
		Pip:  "conan",
	})
	Register(&Definition{
		Name:     "gcovr",
		Packages: same("gcovr"),
		Binary:   binary("gcovr"),
		Pip:      "gcovr",
	})
	Register(&Definition{
		Name:     "ccache",
		Packages: same("ccache"),
		Binary:   binary("ccache"),
	})
	Register(&Definition{
		Name:     "cppcheck",
		Packages: same("cppcheck"),
		Binary:   binary("cppcheck"),
	})
	Register(&Definition{
		Name:     "make",
		Packages: same("make"),
		Binary:   binary("make"),
	})
	Register(&Definition{
		Name: "doxygen",
		Packages: named(map[string][]string{
			"apt":    {"doxygen"},
			"dnf":    {"doxygen"},
			"pacman": {"doxygen"},
			"brew":   {"doxygen"},
			"choco":  {"doxygen.install"},
		}),
		Binary: binary("doxygen"),
	})
	Register(&Definition{
		Name:    "task",
		Aliases: []string{"go-task"},
		Packages: named(map[string][]string{
			"brew":  {"go-task"},
			"choco": {"go-task"},
		}),
		Binary:  binary("task"),
		Locator: func(p artifact.Probe) artifact.Locator { return artifact.NewTask(p) },
	})
}
