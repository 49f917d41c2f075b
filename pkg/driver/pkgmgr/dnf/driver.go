package dnf

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

func (p *Provider) ID() string         { return "pkgmgr_dnf" }
func (p *Provider) Name() string       { return "DNF" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if !execdriver.IsBinaryAvailable(ctx, "dnf") {
		return fmt.Errorf("%w: dnf not found", driver.ErrIncompatible)
	}
	return nil
}

func (p *Provider) New(ctx context.Context) (pkgmgr.Driver, error) {
	return &Driver{run: execdriver.DefaultRunner}, nil
}

type Driver struct {
	run execdriver.Runner
}

func (d *Driver) ID() string { return "dnf" }

func (d *Driver) Lookup(ctx context.Context, pkg pkgmgr.Package) (pkgmgr.Package, error) {
	out, err := d.run.CombinedOutput(ctx, "dnf", "list", "--available", "--showduplicates", "-q", pkg.Name)
	if err != nil {
		// dnf exits non zero when nothing matches.
		return pkgmgr.Package{}, fmt.Errorf("%w: %s", pkgmgr.ErrPackageNotFound, pkg)
	}
	v, ok := pkgmgr.MatchVersion(parseList(string(out), pkg.Name), pkg.Version)
	if !ok {
		return pkgmgr.Package{}, fmt.Errorf("%w: %s", pkgmgr.ErrPackageNotFound, pkg)
	}
	return pkgmgr.Package{Name: pkg.Name, Version: v}, nil
}

func (d *Driver) Install(ctx context.Context, pkgs ...pkgmgr.Package) error {
	args := []string{"install", "-y", "-q"}
	for _, p := range pkgs {
		if p.Version != "" {
			args = append(args, p.Name+"-"+p.Version)
		} else {
			args = append(args, p.Name)
		}
	}
	name, args := execdriver.Elevate(ctx, "dnf", args...)
	slog.Info("installing with dnf", "packages", pkgs)
	if out, err := d.run.CombinedOutput(ctx, name, args...); err != nil {
		return fmt.Errorf("dnf install failed: %w\n%s", err, out)
	}
	return nil
}

// parseList reads "name.arch  version-release  repo" rows. dnf prints oldest first.
func parseList(out, name string) []string {
	var versions []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pkgName, _, _ := strings.Cut(fields[0], ".")
		if pkgName != name {
			continue
		}
		versions = append([]string{fields[1]}, versions...)
	}
	return versions
}
