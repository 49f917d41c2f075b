package brew

import (
	"context"
	"encoding/json"
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

func (p *Provider) ID() string         { return "pkgmgr_brew" }
func (p *Provider) Name() string       { return "Homebrew" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if !execdriver.IsBinaryAvailable(ctx, "brew") {
		return fmt.Errorf("%w: brew not found", driver.ErrIncompatible)
	}
	return nil
}

func (p *Provider) New(ctx context.Context) (pkgmgr.Driver, error) {
	return &Driver{run: execdriver.DefaultRunner}, nil
}

// Driver pins versions through versioned formulae (llvm@15), so the version
// is carried by the package name and Lookup only checks the stable version.
type Driver struct {
	run execdriver.Runner
}

func (d *Driver) ID() string { return "brew" }

type formulaInfo struct {
	Formulae []struct {
		Name     string `json:"name"`
		Versions struct {
			Stable string `json:"stable"`
		} `json:"versions"`
	} `json:"formulae"`
}

func (d *Driver) Lookup(ctx context.Context, pkg pkgmgr.Package) (pkgmgr.Package, error) {
	out, err := d.run.CombinedOutput(ctx, "brew", "info", "--json=v2", pkg.Name)
	if err != nil {
		return pkgmgr.Package{}, fmt.Errorf("%w: %s", pkgmgr.ErrPackageNotFound, pkg)
	}
	var info formulaInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return pkgmgr.Package{}, fmt.Errorf("failed to decode brew info for %s: %w", pkg.Name, err)
	}
	if len(info.Formulae) == 0 {
		return pkgmgr.Package{}, fmt.Errorf("%w: %s", pkgmgr.ErrPackageNotFound, pkg)
	}
	stable := info.Formulae[0].Versions.Stable
	if !pkgmgr.VersionMatches(stable, pkg.Version) {
		return pkgmgr.Package{}, fmt.Errorf("%w: %s (formula is at %s)", pkgmgr.ErrPackageNotFound, pkg, stable)
	}
	return pkgmgr.Package{Name: pkg.Name, Version: stable}, nil
}

func (d *Driver) Install(ctx context.Context, pkgs ...pkgmgr.Package) error {
	args := []string{"install"}
	for _, p := range pkgs {
		args = append(args, p.Name)
	}
	slog.Info("installing with brew", "packages", pkgs)
	if out, err := d.run.CombinedOutput(ctx, "brew", args...); err != nil {
		return fmt.Errorf("brew install failed: %w\n%s", err, out)
	}
	return nil
}

// Prefix returns the opt prefix of a formula, e.g. /opt/homebrew/opt/llvm@18.
func (d *Driver) Prefix(ctx context.Context, pkg pkgmgr.Package) (string, error) {
	out, err := d.run.CombinedOutput(ctx, "brew", "--prefix", pkg.Name)
	if err != nil {
		return "", fmt.Errorf("brew --prefix %s: %w\n%s", pkg.Name, err, out)
	}
	prefix := strings.TrimSpace(string(out))
	if prefix == "" {
		return "", fmt.Errorf("brew --prefix %s printed nothing", pkg.Name)
	}
	return prefix, nil
}
