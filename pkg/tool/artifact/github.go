package artifact

import (
	"context"
	"fmt"
	"strings"

	"toolsmith/pkg/platform"
	"toolsmith/pkg/semver"
)

const githubBase = "https://github.com"

// Asset names the release file of one version on one platform.
type Asset struct {
	File string
	// Folder is the top level folder inside the archive, empty for flat archives.
	Folder string
	BinDir string
}

// AssetFunc returns the asset of v for p, or an error when none is published.
type AssetFunc func(p platform.Info, v string) (Asset, error)

// GitHubRelease locates assets attached to "v<version>" tagged GitHub releases.
type GitHubRelease struct {
	Tool  string
	Repo  string
	Probe Probe
	Asset AssetFunc

	base     string
	registry *Registry
}

func (g *GitHubRelease) Name() string { return g.Tool }

func (g *GitHubRelease) Versions() []string { return g.registry.Versions() }

func (g *GitHubRelease) Locate(ctx context.Context, p platform.Info, version string) (string, Descriptor, error) {
	target := UnsupportedTargetError{Tool: g.Tool, Version: version, OS: p.OS, Arch: p.Arch}
	return FirstReachable(ctx, g.Probe, target, g.registry.Candidates(version), func(ctx context.Context, v string) (Descriptor, error) {
		asset, err := g.Asset(p, v)
		if err != nil {
			return Descriptor{}, err
		}
		extract := ExtractorFor(asset.File)
		if extract == nil {
			return Descriptor{}, fmt.Errorf("no extractor for %s", asset.File)
		}
		return Descriptor{
			URL:             fmt.Sprintf("%s/%s/releases/download/v%s/%s", g.base, g.Repo, v, asset.File),
			ExtractedFolder: asset.Folder,
			BinDir:          asset.BinDir,
			Extract:         extract,
		}, nil
	})
}

// NewCMake locates Kitware's CMake binary distributions.
func NewCMake(probe Probe) *GitHubRelease {
	return &GitHubRelease{
		Tool:  "cmake",
		Repo:  "Kitware/CMake",
		Probe: probe,
		Asset: cmakeAsset,
		base:  githubBase,
		registry: NewRegistry(
			"3.10.3", "3.12.4", "3.13.5", "3.14.7", "3.15.7", "3.16.9", "3.17.5",
			"3.18.6", "3.19.8", "3.20.0", "3.20.6", "3.21.7", "3.22.6", "3.23.5",
			"3.24.4", "3.25.3", "3.26.6", "3.27.9", "3.28.6", "3.29.8", "3.30.0",
			"3.30.1", "3.30.2",
		),
	}
}

// CMake renamed its platform suffixes in 3.20.0.
const cmakeRenameMin = "3.20.0"

func cmakeAsset(p platform.Info, v string) (Asset, error) {
	arch := platform.NormalizeArch(p.Arch)
	modern := semver.Compare(v, cmakeRenameMin) >= 0

	var suffix, ext string
	binDir := "bin"
	switch platform.NormalizeOS(p.OS) {
	case platform.Linux:
		ext = ".tar.gz"
		switch {
		case arch == "amd64" && modern:
			suffix = "linux-x86_64"
		case arch == "amd64":
			suffix = "Linux-x86_64"
		case arch == "arm64" && modern:
			suffix = "linux-aarch64"
		}
	case platform.Darwin:
		ext = ".tar.gz"
		binDir = "CMake.app/Contents/bin"
		if modern {
			suffix = "macos-universal"
		} else if arch == "amd64" {
			suffix = "Darwin-x86_64"
		}
	case platform.Windows:
		ext = ".zip"
		switch {
		case arch == "amd64" && modern:
			suffix = "windows-x86_64"
		case arch == "amd64":
			suffix = "win64-x64"
		case arch == "386" && modern:
			suffix = "windows-i386"
		case arch == "386":
			suffix = "win32-x86"
		case arch == "arm64" && semver.Compare(v, "3.24.0") >= 0:
			suffix = "windows-arm64"
		}
	}
	if suffix == "" {
		return Asset{}, fmt.Errorf("%w for %s/%s", errNoArtifact, p.OS, arch)
	}
	folder := "cmake-" + v + "-" + suffix
	return Asset{File: folder + ext, Folder: folder, BinDir: binDir}, nil
}

// NewNinja locates the ninja-build release zips, which hold a single binary.
func NewNinja(probe Probe) *GitHubRelease {
	return &GitHubRelease{
		Tool:  "ninja",
		Repo:  "ninja-build/ninja",
		Probe: probe,
		Asset: ninjaAsset,
		base:  githubBase,
		registry: NewRegistry(
			"1.8.2", "1.9.0", "1.10.0", "1.10.1", "1.10.2", "1.11.0", "1.11.1",
			"1.12.0", "1.12.1",
		),
	}
}

func ninjaAsset(p platform.Info, v string) (Asset, error) {
	arch := platform.NormalizeArch(p.Arch)
	arm := semver.Compare(v, "1.12.0") >= 0
	var name string
	switch platform.NormalizeOS(p.OS) {
	case platform.Linux:
		switch {
		case arch == "amd64":
			name = "ninja-linux"
		case arch == "arm64" && arm:
			name = "ninja-linux-aarch64"
		}
	case platform.Darwin:
		name = "ninja-mac"
	case platform.Windows:
		switch {
		case arch == "amd64":
			name = "ninja-win"
		case arch == "arm64" && arm:
			name = "ninja-winarm64"
		}
	}
	if name == "" {
		return Asset{}, fmt.Errorf("%w for %s/%s", errNoArtifact, p.OS, arch)
	}
	return Asset{File: name + ".zip"}, nil
}

// NewTask locates go-task release archives.
func NewTask(probe Probe) *GitHubRelease {
	return &GitHubRelease{
		Tool:  "task",
		Repo:  "go-task/task",
		Probe: probe,
		Asset: taskAsset,
		base:  githubBase,
		registry: NewRegistry(
			"3.30.0", "3.30.1", "3.31.0", "3.32.0", "3.33.0", "3.33.1", "3.34.0",
			"3.34.1", "3.35.0", "3.35.1", "3.36.0", "3.37.0", "3.37.1", "3.37.2",
			"3.38.0",
		),
	}
}

func taskAsset(p platform.Info, v string) (Asset, error) {
	goos := platform.NormalizeOS(p.OS)
	arch := platform.NormalizeArch(p.Arch)
	switch arch {
	case "amd64", "arm64", "386":
	default:
		return Asset{}, fmt.Errorf("%w for %s/%s", errNoArtifact, p.OS, arch)
	}
	ext := ".tar.gz"
	if goos == platform.Windows {
		ext = ".zip"
	}
	return Asset{File: "task_" + strings.ToLower(goos) + "_" + arch + ext}, nil
}
