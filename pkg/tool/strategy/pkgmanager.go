package strategy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	execdriver "toolsmith/pkg/driver/exec"
	"toolsmith/pkg/driver/pkgmgr"
	"toolsmith/pkg/platform"
)

// PackagesFunc names the native packages providing a tool for a package manager.
// Returning nothing means the manager does not package the tool.
type PackagesFunc func(manager string, req Request) []pkgmgr.Package

// PackageManager installs tools with the host's native package manager.
type PackageManager struct {
	Packages PackagesFunc
	// Binary names the executable used to find the bin dir after installation.
	Binary func(manager string, req Request) string
	// ResolveLinks follows symlinks from the executable to the directory it really lives in.
	ResolveLinks bool
	// Which defaults to the exec driver lookup.
	Which func(ctx context.Context, name string) (string, error)
}

func (s *PackageManager) Name() string { return "package-manager" }

func (s *PackageManager) Attempt(ctx context.Context, req Request) Outcome {
	host, target := req.Platform.Arch, req.Target().Arch
	if host != "" && platform.NormalizeArch(host) != platform.NormalizeArch(target) {
		return Unavailable(fmt.Errorf("native packages are built for %s, not %s", host, target))
	}
	mgr, err := pkgmgr.Get(ctx)
	if err != nil {
		return Unavailable(fmt.Errorf("no package manager: %w", err))
	}
	wanted := s.Packages(mgr.ID(), req)
	if len(wanted) == 0 {
		return Unavailable(fmt.Errorf("%s does not package %s", mgr.ID(), req.Tool))
	}

	resolved := make([]pkgmgr.Package, 0, len(wanted))
	for _, pkg := range wanted {
		found, err := mgr.Lookup(ctx, pkg)
		if errors.Is(err, pkgmgr.ErrPackageNotFound) {
			return Unavailable(fmt.Errorf("%s: %w", mgr.ID(), err))
		}
		if err != nil {
			return Failed(fmt.Errorf("%s lookup of %s: %w", mgr.ID(), pkg, err))
		}
		resolved = append(resolved, found)
	}

	if err := mgr.Install(ctx, resolved...); err != nil {
		return Failed(fmt.Errorf("%s install: %w", mgr.ID(), err))
	}

	binDir := ""
	if s.Binary != nil {
		bin := s.Binary(mgr.ID(), req)
		path, err := s.find(ctx, mgr, resolved[0], bin)
		if err != nil {
			return Failed(err)
		}
		if s.ResolveLinks {
			if real, err := filepath.EvalSymlinks(path); err == nil {
				path = real
			}
		}
		binDir = filepath.Dir(path)
	}
	return Installed(binDir, resolved[0].Version)
}

// find locates bin after installing pkg. Managers that install into their own
// prefix are asked for it, so a same-named system binary on PATH is never taken.
func (s *PackageManager) find(ctx context.Context, mgr pkgmgr.Driver, pkg pkgmgr.Package, bin string) (string, error) {
	if p, ok := mgr.(pkgmgr.Prefixer); ok {
		prefix, err := p.Prefix(ctx, pkg)
		if err != nil {
			return "", fmt.Errorf("%s prefix of %s: %w", mgr.ID(), pkg.Name, err)
		}
		path := filepath.Join(prefix, "bin", bin)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s installed but %s is not in %s: %w", pkg, bin, filepath.Dir(path), err)
		}
		return path, nil
	}

	which := s.Which
	if which == nil {
		which = execdriver.Which
	}
	path, err := which(ctx, bin)
	if err != nil {
		return "", fmt.Errorf("%s installed but %s is not on PATH: %w", pkg, bin, err)
	}
	return path, nil
}
