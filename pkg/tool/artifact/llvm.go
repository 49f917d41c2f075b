package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"toolsmith/pkg/platform"
	"toolsmith/pkg/semver"
)

const (
	llvmLegacyBase = "https://releases.llvm.org"
	llvmGitHubBase = "https://github.com/llvm/llvm-project/releases/download"

	// Releases up to this version are published on releases.llvm.org.
	llvmLegacyMax = "9.0.1"
	// Windows installers up to this version only exist as 32-bit builds.
	llvmWin32Max = "3.7.0"
	// Starting with this release archives are named LLVM-<version>-<OS>-<ARCH>.
	llvmPlatformNamingMin = "19.1.0"
)

var llvmVersions = []string{
	"3.5.0", "3.5.1", "3.5.2", "3.6.0", "3.6.1", "3.6.2", "3.7.0", "3.7.1",
	"3.8.0", "3.8.1", "3.9.0", "3.9.1", "4.0.0", "4.0.1", "5.0.0", "5.0.1",
	"5.0.2", "6.0.0", "6.0.1", "7.0.0", "7.0.1", "7.1.0", "8.0.0", "8.0.1",
	"9.0.0", "9.0.1", "10.0.0", "10.0.1", "11.0.0", "11.0.1", "11.1.0",
	"12.0.0", "12.0.1", "13.0.0", "13.0.1", "14.0.0", "14.0.1", "14.0.2",
	"14.0.3", "14.0.4", "14.0.5", "14.0.6", "15.0.0", "15.0.1", "15.0.2",
	"15.0.3", "15.0.4", "15.0.5", "15.0.6", "15.0.7", "16.0.0", "16.0.1",
	"16.0.2", "16.0.3", "16.0.4", "16.0.5", "16.0.6", "17.0.1", "17.0.2",
	"17.0.3", "17.0.4", "17.0.5", "17.0.6", "18.1.0", "18.1.1", "18.1.2",
	"18.1.3", "18.1.4", "18.1.5", "18.1.6", "18.1.7", "18.1.8", "19.1.0",
	"19.1.1", "19.1.2", "19.1.3", "19.1.4", "19.1.5", "19.1.6", "19.1.7",
	"20.1.0", "20.1.1", "20.1.2", "20.1.3", "20.1.4", "20.1.5", "20.1.6",
	"20.1.7", "20.1.8",
}

// Versions for which no prebuilt archive exists on a platform, whatever the architecture.
var (
	llvmMissingLinux = set(
		"3.5.1", "8.0.1", "14.0.1", "14.0.2", "14.0.3", "14.0.4", "14.0.5",
		"14.0.6", "15.0.1", "15.0.2", "15.0.3", "15.0.4", "15.0.7", "16.0.1",
		"16.0.5", "16.0.6", "17.0.1", "17.0.3", "18.1.0", "18.1.1", "18.1.2",
		"18.1.3", "18.1.5", "18.1.6", "18.1.7",
	)
	llvmMissingDarwin = set(
		"3.5.1", "3.6.1", "3.6.2", "3.7.1", "3.8.1", "3.9.1", "6.0.1", "7.0.1",
		"7.1.0", "8.0.1", "9.0.1", "10.0.1", "11.0.1", "11.1.0", "12.0.1",
		"13.0.1", "14.0.1", "14.0.2", "14.0.3", "14.0.4", "14.0.5", "14.0.6",
		"15.0.0", "15.0.1", "15.0.2", "15.0.3", "15.0.4", "15.0.5", "15.0.6",
	)
	llvmMissingWindows = set(
		"3.5.1", "3.5.2", "3.6.1", "3.6.2", "3.7.1", "3.8.1", "3.9.1", "4.0.1",
		"5.0.2", "7.1.0", "11.1.0", "12.0.1", "13.0.1", "14.0.1", "14.0.2",
		"14.0.3", "14.0.4", "14.0.5",
	)
)

// llvmUbuntuTags records the Ubuntu release each x86_64 Linux archive was built on.
var llvmUbuntuTags = map[string]string{
	"3.5.0":  "-ubuntu-14.04",
	"3.5.2":  "-ubuntu-14.04",
	"3.6.0":  "-ubuntu-14.04",
	"3.6.1":  "-ubuntu-14.04",
	"3.6.2":  "-ubuntu-14.04",
	"3.7.0":  "-ubuntu-14.04",
	"3.7.1":  "-ubuntu-14.04",
	"3.8.0":  "-ubuntu-16.04",
	"3.8.1":  "-ubuntu-16.04",
	"3.9.0":  "-ubuntu-16.04",
	"3.9.1":  "-ubuntu-16.04",
	"4.0.0":  "-ubuntu-16.04",
	"4.0.1":  "-ubuntu-16.04",
	"5.0.0":  "-ubuntu16.04",
	"5.0.1":  "-ubuntu-16.04",
	"5.0.2":  "-ubuntu-16.04",
	"6.0.0":  "-ubuntu-16.04",
	"6.0.1":  "-ubuntu-16.04",
	"7.0.0":  "-ubuntu-16.04",
	"7.0.1":  "-ubuntu-18.04",
	"7.1.0":  "-ubuntu-14.04",
	"8.0.0":  "-ubuntu-18.04",
	"9.0.0":  "-ubuntu-18.04",
	"9.0.1":  "-ubuntu-16.04",
	"10.0.0": "-ubuntu-18.04",
	"10.0.1": "-ubuntu-16.04",
	"11.0.0": "-ubuntu-20.04",
	"11.0.1": "-ubuntu-16.04",
	"11.1.0": "-ubuntu-16.04",
	"12.0.0": "-ubuntu-20.04",
	"12.0.1": "-ubuntu-16.04",
	"13.0.0": "-ubuntu-20.04",
	"13.0.1": "-ubuntu-18.04",
	"14.0.0": "-ubuntu-18.04",
	"15.0.5": "-ubuntu-18.04",
	"15.0.6": "-ubuntu-18.04",
	"16.0.0": "-ubuntu-18.04",
	"16.0.2": "-ubuntu-22.04",
	"16.0.3": "-ubuntu-22.04",
	"16.0.4": "-ubuntu-22.04",
	"17.0.2": "-ubuntu-22.04",
	"17.0.4": "-ubuntu-22.04",
	"17.0.5": "-ubuntu-22.04",
	"17.0.6": "-ubuntu-22.04",
	"18.1.4": "-ubuntu-18.04",
	"18.1.8": "-ubuntu-18.04",
}

// Linux releases whose final tag has no x86_64 archive; the release candidate build is used instead.
var llvmLinuxRCRedirects = map[string]string{
	"15.0.0": "15.0.0-rc3",
}

// Darwin archive triples, keyed by the first version using them.
var (
	llvmDarwinX64Triples = []threshold{
		{min: "3.5.0", value: "x86_64-apple-darwin"},
		{min: "15.0.0", value: "x86_64-apple-darwin21.0"},
		{min: "16.0.0", value: ""},
	}
	llvmDarwinARM64Triples = []threshold{
		{min: "15.0.0", value: "arm64-apple-darwin21.0"},
		{min: "16.0.0", value: "arm64-apple-darwin22.0"},
		{min: "18.1.0", value: "arm64-apple-macos11"},
	}
)

// LLVM locates clang+llvm release archives.
type LLVM struct {
	Probe Probe

	legacyBase string
	githubBase string
	registry   *Registry
}

// NewLLVM returns a locator for the official LLVM prebuilt releases.
func NewLLVM(probe Probe) *LLVM {
	return &LLVM{
		Probe:      probe,
		legacyBase: llvmLegacyBase,
		githubBase: llvmGitHubBase,
		registry:   NewRegistry(llvmVersions...),
	}
}

func (l *LLVM) Name() string { return "llvm" }

func (l *LLVM) Versions() []string { return l.registry.Versions() }

func (l *LLVM) Locate(ctx context.Context, p platform.Info, version string) (string, Descriptor, error) {
	target := UnsupportedTargetError{Tool: l.Name(), Version: version, OS: p.OS, Arch: p.Arch}
	return FirstReachable(ctx, l.Probe, target, l.registry.Candidates(version), func(ctx context.Context, v string) (Descriptor, error) {
		return l.descriptor(ctx, p, v)
	})
}

var errNoArtifact = errors.New("no prebuilt artifact")

func (l *LLVM) descriptor(ctx context.Context, p platform.Info, v string) (Descriptor, error) {
	switch platform.NormalizeOS(p.OS) {
	case platform.Linux:
		return l.linux(p, v)
	case platform.Darwin:
		return l.darwin(p, v)
	case platform.Windows:
		return l.windows(ctx, p, v)
	}
	return Descriptor{}, fmt.Errorf("%w for %s", errNoArtifact, p.OS)
}

func (l *LLVM) linux(p platform.Info, v string) (Descriptor, error) {
	arch := platform.NormalizeArch(p.Arch)
	if !semver.LessOrEqual(llvmPlatformNamingMin, v) {
		return l.clangNamed(v, arch)
	}
	switch arch {
	case "amd64":
		return l.platformNamed(v, "Linux-X64"), nil
	case "arm64":
		return l.platformNamed(v, "Linux-ARM64"), nil
	}
	return Descriptor{}, fmt.Errorf("%w for linux/%s", errNoArtifact, arch)
}

func (l *LLVM) clangNamed(v, arch string) (Descriptor, error) {
	if llvmMissingLinux[v] {
		return Descriptor{}, fmt.Errorf("%w for linux", errNoArtifact)
	}
	tag := v
	var triple string
	switch arch {
	case "amd64":
		if rc, ok := llvmLinuxRCRedirects[v]; ok {
			tag = rc
		}
		triple = "x86_64-linux-gnu" + ubuntuTag(v)
	case "arm64":
		if semver.Compare(v, "7.0.0") < 0 {
			return Descriptor{}, fmt.Errorf("%w for linux/aarch64", errNoArtifact)
		}
		triple = "aarch64-linux-gnu"
	default:
		return Descriptor{}, fmt.Errorf("%w for linux/%s", errNoArtifact, arch)
	}
	folder := "clang+llvm-" + tag + "-" + triple
	return Descriptor{
		URL:             l.releaseURL(tag, folder+".tar.xz"),
		ExtractedFolder: folder,
		BinDir:          "bin",
		Extract:         ExtractTarXz,
	}, nil
}

func (l *LLVM) darwin(p platform.Info, v string) (Descriptor, error) {
	arch := platform.NormalizeArch(p.Arch)
	if semver.LessOrEqual(llvmPlatformNamingMin, v) {
		if arch != "arm64" {
			return Descriptor{}, fmt.Errorf("%w for darwin/%s", errNoArtifact, arch)
		}
		return l.platformNamed(v, "macOS-ARM64"), nil
	}

	if llvmMissingDarwin[v] {
		return Descriptor{}, fmt.Errorf("%w for darwin", errNoArtifact)
	}
	var triple string
	switch arch {
	case "amd64":
		triple = pick(llvmDarwinX64Triples, v)
	case "arm64":
		triple = pick(llvmDarwinARM64Triples, v)
	}
	if triple == "" {
		return Descriptor{}, fmt.Errorf("%w for darwin/%s", errNoArtifact, arch)
	}

	folder := "clang+llvm-" + v + "-" + triple
	d := Descriptor{
		URL:             l.releaseURL(v, folder+".tar.xz"),
		ExtractedFolder: folder,
		BinDir:          "bin",
		Extract:         ExtractTarXz,
	}
	if v == "9.0.0" {
		// The 9.0.0 archive unpacks into a folder with the triple reversed.
		d.ExtractedFolder = "clang+llvm-9.0.0-x86_64-darwin-apple"
	}
	return d, nil
}

func (l *LLVM) windows(ctx context.Context, p platform.Info, v string) (Descriptor, error) {
	if llvmMissingWindows[v] {
		return Descriptor{}, fmt.Errorf("%w for windows", errNoArtifact)
	}
	arch := platform.NormalizeArch(p.Arch)
	suffix := "-win64.exe"
	switch {
	case arch == "386", semver.LessOrEqual(v, llvmWin32Max):
		suffix = "-win32.exe"
	case arch == "arm64":
		if semver.Compare(v, "18.1.0") < 0 {
			return Descriptor{}, fmt.Errorf("%w for windows/arm64", errNoArtifact)
		}
		suffix = "-woa64.exe"
	}
	file := "LLVM-" + v + suffix
	d := Descriptor{
		URL:     l.githubBase + "/llvmorg-" + v + "/" + file,
		BinDir:  "bin",
		Extract: Extract7z,
	}
	if semver.LessOrEqual(v, llvmLegacyMax) {
		legacy := l.legacyBase + "/" + v + "/" + file
		if l.Probe.Exists(ctx, legacy) {
			d.URL = legacy
		}
	}
	return d, nil
}

func (l *LLVM) platformNamed(v, suffix string) Descriptor {
	folder := "LLVM-" + v + "-" + suffix
	return Descriptor{
		URL:             l.githubBase + "/llvmorg-" + v + "/" + folder + ".tar.xz",
		ExtractedFolder: folder,
		BinDir:          "bin",
		Extract:         ExtractTarXz,
	}
}

// releaseURL picks the release host by version. tag may name a release candidate.
func (l *LLVM) releaseURL(tag, file string) string {
	final, _, _ := strings.Cut(tag, "-")
	if semver.LessOrEqual(final, llvmLegacyMax) {
		return l.legacyBase + "/" + final + "/" + file
	}
	return l.githubBase + "/llvmorg-" + tag + "/" + file
}

// ubuntuTag returns the distribution suffix of v, falling back to the one of
// the latest version with a known tag.
func ubuntuTag(v string) string {
	if tag, ok := llvmUbuntuTags[v]; ok {
		return tag
	}
	latest := ""
	for known := range llvmUbuntuTags {
		if latest == "" || semver.Compare(known, latest) > 0 {
			latest = known
		}
	}
	return llvmUbuntuTags[latest]
}

type threshold struct {
	min   string
	value string
}

// pick returns the value of the last threshold whose min is <= v.
func pick(table []threshold, v string) string {
	value := ""
	for _, t := range table {
		if semver.Compare(v, t.min) >= 0 {
			value = t.value
		}
	}
	return value
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}
