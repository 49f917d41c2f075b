// Package platform describes the host a tool is being installed on.
package platform

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const (
	Linux   = "linux"
	Darwin  = "darwin"
	Windows = "windows"
)

// Distribution families with distinct native package tooling.
const (
	FamilyDebian = "debian"
	FamilyRedHat = "rhel"
	FamilyArch   = "arch"
)

// Info is a snapshot of the host.
type Info struct {
	OS           string
	Arch         string
	DistroID     string
	DistroFamily string
	// OSRelease holds the numeric components of the OS release, e.g. [22 4] for Ubuntu 22.04.
	OSRelease []int
}

// Major returns the first OSRelease component, or -1 when unknown.
func (i Info) Major() int {
	if len(i.OSRelease) == 0 {
		return -1
	}
	return i.OSRelease[0]
}

// IsDebianFamily reports whether update-alternatives and apt are expected.
func (i Info) IsDebianFamily() bool {
	return i.OS == Linux && i.DistroFamily == FamilyDebian
}

// NormalizeOS maps runtime and Node-style platform names onto Linux, Darwin or Windows.
func NormalizeOS(name string) string {
	switch strings.ToLower(name) {
	case "win32", "win", "windows":
		return Windows
	case "darwin", "macos", "osx":
		return Darwin
	case "linux":
		return Linux
	}
	return strings.ToLower(name)
}

// NormalizeArch maps the many spellings of an architecture to the Go names.
func NormalizeArch(arch string) string {
	switch strings.ToLower(arch) {
	case "x64", "x86_64", "amd64":
		return "amd64"
	case "arm64", "aarch64":
		return "arm64"
	case "ia32", "x86", "386", "i386", "i686":
		return "386"
	}
	return strings.ToLower(arch)
}

// ParseVersion splits a dotted release string into its numeric components.
// Parsing stops at the first non numeric component.
func ParseVersion(s string) []int {
	var out []int
	for _, part := range strings.Split(strings.TrimSpace(s), ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

// OSRelease holds the fields of /etc/os-release that matter here.
type OSRelease struct {
	ID        string
	IDLike    []string
	VersionID string
}

// ParseOSRelease reads an os-release(5) document.
func ParseOSRelease(r io.Reader) (OSRelease, error) {
	var rel OSRelease
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "ID":
			rel.ID = value
		case "ID_LIKE":
			rel.IDLike = strings.Fields(value)
		case "VERSION_ID":
			rel.VersionID = value
		}
	}
	return rel, scanner.Err()
}

// Family returns the distribution family of an os-release document.
func (r OSRelease) Family() string {
	for _, id := range append([]string{r.ID}, r.IDLike...) {
		switch id {
		case "debian", "ubuntu":
			return FamilyDebian
		case "rhel", "fedora", "centos":
			return FamilyRedHat
		case "arch":
			return FamilyArch
		}
	}
	return r.ID
}
