package apt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"toolsmith/pkg/driver"
	execdriver "toolsmith/pkg/driver/exec"
	"toolsmith/pkg/driver/pkgmgr"
)

func init() {
	driver.Register[pkgmgr.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "pkgmgr_apt" }
func (p *Provider) Name() string       { return "APT" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if !execdriver.IsBinaryAvailable(ctx, "apt-get") {
		return fmt.Errorf("%w: apt-get not found", driver.ErrIncompatible)
	}
	return nil
}

func (p *Provider) New(ctx context.Context) (pkgmgr.Driver, error) {
	return &Driver{run: execdriver.DefaultRunner}, nil
}

type Driver struct {
	run execdriver.Runner

	updateOnce sync.Once
	updateErr  error
}

func (d *Driver) ID() string { return "apt" }

func (d *Driver) Lookup(ctx context.Context, pkg pkgmgr.Package) (pkgmgr.Package, error) {
	versions, err := d.madison(ctx, pkg.Name)
	if err == nil && len(versions) == 0 {
		// Fresh CI images ship without package lists.
		if err := d.update(ctx); err != nil {
			return pkgmgr.Package{}, err
		}
		versions, err = d.madison(ctx, pkg.Name)
	}
	if err != nil {
		return pkgmgr.Package{}, err
	}
	v, ok := pkgmgr.MatchVersion(versions, pkg.Version)
	if !ok {
		return pkgmgr.Package{}, fmt.Errorf("%w: %s (apt has %v)", pkgmgr.ErrPackageNotFound, pkg, versions)
	}
	return pkgmgr.Package{Name: pkg.Name, Version: v}, nil
}

func (d *Driver) Install(ctx context.Context, pkgs ...pkgmgr.Package) error {
	args := []string{"install", "-y", "-q", "--no-install-recommends"}
	for _, p := range pkgs {
		if p.Version != "" {
			args = append(args, p.Name+"="+p.Version)
		} else {
			args = append(args, p.Name)
		}
	}
	name, args := execdriver.Elevate(ctx, "apt-get", args...)
	slog.Info("installing with apt", "packages", pkgs)
	if out, err := d.run.CombinedOutput(ctx, name, args...); err != nil {
		return fmt.Errorf("apt-get install failed: %w\n%s", err, out)
	}
	return nil
}

func (d *Driver) update(ctx context.Context) error {
	d.updateOnce.Do(func() {
		name, args := execdriver.Elevate(ctx, "apt-get", "update", "-q")
		if out, err := d.run.CombinedOutput(ctx, name, args...); err != nil {
			d.updateErr = fmt.Errorf("apt-get update failed: %w\n%s", err, out)
		}
	})
	return d.updateErr
}

func (d *Driver) madison(ctx context.Context, name string) ([]string, error) {
	out, err := d.run.CombinedOutput(ctx, "apt-cache", "madison", name)
	if err != nil {
		return nil, fmt.Errorf("apt-cache madison %s: %w", name, err)
	}
	return parseMadison(string(out), name), nil
}

// parseMadison extracts versions from "name | version | source" lines, newest first.
func parseMadison(out, name string) []string {
	var versions []string
	seen := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "|")
		if len(fields) < 3 || strings.TrimSpace(fields[0]) != name {
			continue
		}
		v := strings.TrimSpace(fields[1])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		versions = append(versions, v)
	}
	return versions
}
