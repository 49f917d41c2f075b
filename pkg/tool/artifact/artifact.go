// Package artifact maps a tool version and platform to a downloadable archive.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"toolsmith/pkg/platform"
)

// ErrUnsupportedTarget is matched by every UnsupportedTargetError.
var ErrUnsupportedTarget = errors.New("unsupported target")

// ExtractFunc unpacks archive into dest.
type ExtractFunc func(ctx context.Context, archive, dest string) error

// Descriptor is one concrete, downloadable artifact.
type Descriptor struct {
	URL string
	// ExtractedFolder is the top level folder the archive unpacks into. Empty for flat archives.
	ExtractedFolder string
	// BinDir is relative to ExtractedFolder.
	BinDir  string
	Extract ExtractFunc
	// Checksum is an optional "algo:hex" digest of the archive.
	Checksum string
}

// Locator resolves a possibly partial version ("12", "12.0") to the newest
// specific version with a reachable artifact for the platform.
type Locator interface {
	Name() string
	Locate(ctx context.Context, p platform.Info, version string) (string, Descriptor, error)
}

// Lister is implemented by locators backed by a Registry.
type Lister interface {
	Versions() []string
}

// UnsupportedTargetError reports that no candidate of a version has an artifact for a platform.
type UnsupportedTargetError struct {
	Tool    string
	Version string
	OS      string
	Arch    string
	// Tried lists every candidate with the reason it was rejected.
	Tried []string
}

func (e *UnsupportedTargetError) Error() string {
	msg := fmt.Sprintf("no %s artifact for version %q on %s/%s", e.Tool, e.Version, e.OS, e.Arch)
	if len(e.Tried) > 0 {
		msg += " (tried " + strings.Join(e.Tried, "; ") + ")"
	}
	return msg
}

func (e *UnsupportedTargetError) Is(target error) bool {
	return target == ErrUnsupportedTarget
}

// Probe confirms that a URL points at an existing artifact.
type Probe interface {
	Exists(ctx context.Context, url string) bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context, url string) bool

func (f ProbeFunc) Exists(ctx context.Context, url string) bool { return f(ctx, url) }

// HTTPProbe checks URLs with a HEAD request, following redirects.
type HTTPProbe struct {
	Client *http.Client
}

func (p *HTTPProbe) Exists(ctx context.Context, url string) bool {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		slog.Debug("probe failed", "url", url, "error", err)
		return false
	}
	resp.Body.Close()
	slog.Debug("probe", "url", url, "status", resp.StatusCode)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// BuildFunc constructs the descriptor of one specific version. An error rejects the candidate.
type BuildFunc func(ctx context.Context, specific string) (Descriptor, error)

// FirstReachable walks candidates in order and returns the first one whose
// artifact the probe confirms.
func FirstReachable(ctx context.Context, probe Probe, target UnsupportedTargetError, candidates []string, build BuildFunc) (string, Descriptor, error) {
	for _, v := range candidates {
		d, err := build(ctx, v)
		if err != nil {
			slog.Debug("skipping candidate", "tool", target.Tool, "version", v, "reason", err)
			target.Tried = append(target.Tried, v+": "+err.Error())
			continue
		}
		if !probe.Exists(ctx, d.URL) {
			slog.Debug("candidate not reachable", "tool", target.Tool, "version", v, "url", d.URL)
			target.Tried = append(target.Tried, v+": "+d.URL+" not reachable")
			continue
		}
		slog.Debug("located artifact", "tool", target.Tool, "version", v, "url", d.URL)
		return v, d, nil
	}
	return "", Descriptor{}, &target
}
