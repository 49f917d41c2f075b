package pacman

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"toolsmith/pkg/driver"
	execdriver "toolsmith/pkg/driver/exec"
	"toolsmith/pkg/driver/pkgmgr"
)

func init() {
	driver.Register[pkgmgr.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "pkgmgr_pacman" }
func (p *Provider) Name() string       { return "pacman" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if !execdriver.IsBinaryAvailable(ctx, "pacman") {
		return fmt.Errorf("%w: pacman not found", driver.ErrIncompatible)
	}
	return nil
}

func (p *Provider) New(ctx context.Context) (pkgmgr.Driver, error) {
	return &Driver{run: execdriver.DefaultRunner}, nil
}

// Driver only ever sees the version in the synced repositories; pacman cannot pin older ones.
type Driver struct {
	run execdriver.Runner
}

func (d *Driver) ID() string { return "pacman" }

func (d *Driver) Lookup(ctx context.Context, pkg pkgmgr.Package) (pkgmgr.Package, error) {
	out, err := d.run.CombinedOutput(ctx, "pacman", "-Si", pkg.Name)
	if err != nil {
		return pkgmgr.Package{}, fmt.Errorf("%w: %s", pkgmgr.ErrPackageNotFound, pkg)
	}
	v := parseInfoVersion(string(out))
	if !pkgmgr.VersionMatches(v, pkg.Version) {
		return pkgmgr.Package{}, fmt.Errorf("%w: %s (repository has %q)", pkgmgr.ErrPackageNotFound, pkg, v)
	}
	return pkgmgr.Package{Name: pkg.Name, Version: v}, nil
}

func (d *Driver) Install(ctx context.Context, pkgs ...pkgmgr.Package) error {
	args := []string{"-S", "--noconfirm", "--needed"}
	for _, p := range pkgs {
		args = append(args, p.Name)
	}
	name, args := execdriver.Elevate(ctx, "pacman", args...)
	slog.Info("installing with pacman", "packages", pkgs)
	if out, err := d.run.CombinedOutput(ctx, name, args...); err != nil {
		return fmt.Errorf("pacman -S failed: %w\n%s", err, out)
	}
	return nil
}

func parseInfoVersion(out string) string {
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.TrimSpace(key) == "Version" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
