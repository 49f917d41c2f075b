// Package activate makes installed tools visible to the current process and
// to later build steps.
package activate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"toolsmith/pkg/config"
	execdriver "toolsmith/pkg/driver/exec"
	shimdriver "toolsmith/pkg/driver/shim"
	"toolsmith/pkg/platform"
	"toolsmith/pkg/semver"
)

// Environment is a mutable set of environment variables.
type Environment interface {
	Get(key string) string
	Set(key, value string) error
}

// MapEnvironment is an in-memory Environment.
type MapEnvironment map[string]string

func (m MapEnvironment) Get(key string) string { return m[key] }

func (m MapEnvironment) Set(key, value string) error {
	m[key] = value
	return nil
}

// Activator applies the environment changes of installed tools. All changes
// are idempotent. Failures are logged and returned together; nothing is rolled back.
type Activator struct {
	Env      Environment
	Platform platform.Info
	Runner   execdriver.Runner
	// ShimsDir receives cc and c++ shims where update-alternatives is not used.
	ShimsDir string
	// Priority of update-alternatives registrations.
	Priority int
}

func (a *Activator) runner() execdriver.Runner {
	if a.Runner != nil {
		return a.Runner
	}
	return execdriver.DefaultRunner
}

func (a *Activator) windows() bool { return a.Platform.OS == platform.Windows }

func (a *Activator) listSeparator() string {
	if a.windows() {
		return ";"
	}
	return ":"
}

func (a *Activator) exe(name string) string {
	if a.windows() {
		return name + ".exe"
	}
	return name
}

// Prepend moves dir to the front of the list variable key, removing other occurrences.
func (a *Activator) Prepend(key, dir string) error {
	sep := a.listSeparator()
	entries := []string{dir}
	for _, e := range strings.Split(a.Env.Get(key), sep) {
		if e != "" && e != dir {
			entries = append(entries, e)
		}
	}
	return a.Env.Set(key, strings.Join(entries, sep))
}

// AddFlag appends flag to the space separated variable key unless already present.
func (a *Activator) AddFlag(key, flag string) error {
	flags := strings.Fields(a.Env.Get(key))
	if slices.Contains(flags, flag) {
		return nil
	}
	return a.Env.Set(key, strings.Join(append(flags, flag), " "))
}

// AddPath puts dir first on PATH.
func (a *Activator) AddPath(ctx context.Context, dir string) error {
	if dir == "" {
		return nil
	}
	slog.Debug("adding to PATH", "dir", dir)
	return a.Prepend("PATH", dir)
}

// ActivateLLVM selects the clang of an extracted LLVM release as the C and C++ compiler.
func (a *Activator) ActivateLLVM(ctx context.Context, installDir string) error {
	bin := filepath.Join(installDir, "bin")
	clang := filepath.Join(bin, a.exe("clang"))
	clangxx := filepath.Join(bin, a.exe("clang++"))

	var errs []error
	collect := func(step string, err error) {
		if err != nil {
			slog.Warn("activation step failed", "tool", "llvm", "step", step, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", step, err))
		}
	}

	collect("LLVM_PATH", a.Env.Set("LLVM_PATH", installDir))
	switch a.Platform.OS {
	case platform.Linux:
		collect("LD_LIBRARY_PATH", a.Prepend("LD_LIBRARY_PATH", filepath.Join(installDir, "lib")))
	case platform.Darwin:
		collect("DYLD_LIBRARY_PATH", a.Prepend("DYLD_LIBRARY_PATH", filepath.Join(installDir, "lib")))
	}
	collect("LDFLAGS", a.AddFlag("LDFLAGS", "-L"+filepath.Join(installDir, "lib")))
	collect("CPPFLAGS", a.AddFlag("CPPFLAGS", "-I"+filepath.Join(installDir, "include")))
	collect("CC", a.Env.Set("CC", clang))
	collect("CXX", a.Env.Set("CXX", clangxx))
	collect("PATH", a.AddPath(ctx, bin))
	collect("compiler selection", a.selectCompilers(ctx, clang, clangxx))

	return errors.Join(errs...)
}

// ActivateGCC selects gcc as the C and C++ compiler. version may be empty for
// the distribution's default gcc.
func (a *Activator) ActivateGCC(ctx context.Context, binDir, version string) error {
	cc, cxx := "gcc", "g++"
	if major := semver.Major(version); major > 0 && a.versionedGCC() {
		suffix := "-" + strconv.Itoa(major)
		cc, cxx = cc+suffix, cxx+suffix
	}

	var errs []error
	collect := func(step string, err error) {
		if err != nil {
			slog.Warn("activation step failed", "tool", "gcc", "step", step, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", step, err))
		}
	}

	collect("CC", a.Env.Set("CC", cc))
	collect("CXX", a.Env.Set("CXX", cxx))
	collect("PATH", a.AddPath(ctx, binDir))
	if binDir != "" && a.Platform.IsDebianFamily() {
		collect("compiler selection", a.alternatives(ctx, filepath.Join(binDir, cc), filepath.Join(binDir, cxx)))
	}
	return errors.Join(errs...)
}

// versionedGCC reports whether the host ships gcc-<major> executables:
// Debian packages and Homebrew formulae do, Fedora, Arch and MinGW do not.
func (a *Activator) versionedGCC() bool {
	return a.Platform.IsDebianFamily() || a.Platform.OS == platform.Darwin
}

func (a *Activator) selectCompilers(ctx context.Context, cc, cxx string) error {
	if a.Platform.IsDebianFamily() {
		return a.alternatives(ctx, cc, cxx)
	}
	if a.ShimsDir == "" {
		return nil
	}
	var errs []error
	for _, shim := range []struct{ name, target string }{{"cc", cc}, {"c++", cxx}} {
		path, err := shimdriver.Generate(ctx, filepath.Join(a.ShimsDir, shim.name), []string{shim.target})
		if err != nil {
			errs = append(errs, fmt.Errorf("shim %s: %w", shim.name, err))
			continue
		}
		slog.Debug("generated compiler shim", "shim", path, "target", shim.target)
	}
	if err := a.AddPath(ctx, a.ShimsDir); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// alternatives registers cc and c++ with update-alternatives.
func (a *Activator) alternatives(ctx context.Context, cc, cxx string) error {
	priority := a.Priority
	if priority == 0 {
		priority = config.DefaultAlternativesPriority
	}
	var errs []error
	for _, alt := range []struct{ link, name, target string }{
		{"/usr/bin/cc", "cc", cc},
		{"/usr/bin/c++", "c++", cxx},
	} {
		name, args := execdriver.Elevate(ctx, "update-alternatives", "--install", alt.link, alt.name, alt.target, strconv.Itoa(priority))
		if out, err := a.runner().CombinedOutput(ctx, name, args...); err != nil {
			errs = append(errs, fmt.Errorf("update-alternatives %s: %w\n%s", alt.name, err, out))
		}
	}
	return errors.Join(errs...)
}
