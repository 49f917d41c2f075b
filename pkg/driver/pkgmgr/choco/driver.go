package choco

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"toolsmith/pkg/driver"
	execdriver "toolsmith/pkg/driver/exec"
	"toolsmith/pkg/driver/pkgmgr"
	"toolsmith/pkg/semver"
)

func init() {
	driver.Register[pkgmgr.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "pkgmgr_choco" }
func (p *Provider) Name() string       { return "Chocolatey" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if !execdriver.IsBinaryAvailable(ctx, "choco") {
		return fmt.Errorf("%w: choco not found", driver.ErrIncompatible)
	}
	return nil
}

func (p *Provider) New(ctx context.Context) (pkgmgr.Driver, error) {
	return &Driver{run: execdriver.DefaultRunner}, nil
}

type Driver struct {
	run execdriver.Runner
}

func (d *Driver) ID() string { return "choco" }

func (d *Driver) Lookup(ctx context.Context, pkg pkgmgr.Package) (pkgmgr.Package, error) {
	out, err := d.run.CombinedOutput(ctx, "choco", "search", pkg.Name, "--exact", "--all-versions", "--limit-output")
	if err != nil {
		return pkgmgr.Package{}, fmt.Errorf("choco search %s: %w", pkg.Name, err)
	}
	versions := parseSearch(string(out), pkg.Name)
	semver.SortDescending(versions)
	v, ok := pkgmgr.MatchVersion(versions, pkg.Version)
	if !ok {
		return pkgmgr.Package{}, fmt.Errorf("%w: %s", pkgmgr.ErrPackageNotFound, pkg)
	}
	return pkgmgr.Package{Name: pkg.Name, Version: v}, nil
}

func (d *Driver) Install(ctx context.Context, pkgs ...pkgmgr.Package) error {
	for _, p := range pkgs {
		args := []string{"install", p.Name, "-y", "--no-progress"}
		if p.Version != "" {
			args = append(args, "--version", p.Version)
		}
		slog.Info("installing with choco", "package", p)
		if out, err := d.run.CombinedOutput(ctx, "choco", args...); err != nil {
			return fmt.Errorf("choco install %s failed: %w\n%s", p, err, out)
		}
	}
	return nil
}

// parseSearch reads "name|version" rows.
func parseSearch(out, name string) []string {
	var versions []string
	for _, line := range strings.Split(out, "\n") {
		n, v, ok := strings.Cut(strings.TrimSpace(line), "|")
		if ok && strings.EqualFold(n, name) && v != "" {
			versions = append(versions, v)
		}
	}
	return versions
}
