package native

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"toolsmith/pkg/driver"
	envdriver "toolsmith/pkg/driver/env"
	execdriver "toolsmith/pkg/driver/exec"
	"toolsmith/pkg/platform"
)

type Provider struct{}

func (p *Provider) ID() string {
	return "env_native"
}

func (p *Provider) Name() string {
	return "Native Environment"
}

func (p *Provider) DefaultWeight() int {
	return driver.DefaultWeight
}

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	return nil
}

func (p *Provider) New(ctx context.Context) (envdriver.Driver, error) {
	return &Driver{osReleasePath: "/etc/os-release"}, nil
}

type Driver struct {
	osReleasePath string
}

func (d *Driver) DetectPlatform(ctx context.Context) (platform.Info, error) {
	info := platform.Info{
		OS:   platform.NormalizeOS(runtime.GOOS),
		Arch: platform.NormalizeArch(runtime.GOARCH),
	}
	switch info.OS {
	case platform.Linux:
		f, err := os.Open(d.osReleasePath)
		if err != nil {
			slog.Debug("os-release not readable", "path", d.osReleasePath, "error", err)
			return info, nil
		}
		defer f.Close()
		rel, err := platform.ParseOSRelease(f)
		if err != nil {
			return info, fmt.Errorf("failed to parse %s: %w", d.osReleasePath, err)
		}
		info.DistroID = rel.ID
		info.DistroFamily = rel.Family()
		info.OSRelease = platform.ParseVersion(rel.VersionID)
	case platform.Darwin:
		if cmd, err := execdriver.Run(ctx, "sw_vers", "-productVersion"); err == nil {
			if out, err := cmd.Output(); err == nil {
				info.OSRelease = platform.ParseVersion(strings.TrimSpace(string(out)))
			}
		}
	}
	slog.Debug("detected platform", "os", info.OS, "arch", info.Arch, "distro", info.DistroID, "release", info.OSRelease)
	return info, nil
}

func (d *Driver) GetUserDataDir(ctx context.Context) (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	path := filepath.Join(base, "toolsmith")
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

func (d *Driver) GetConfigDir(ctx context.Context) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "toolsmith"), nil
}

func init() {
	driver.Register[envdriver.Driver](&Provider{})
}
