package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	execdriver "toolsmith/pkg/driver/exec"
	"toolsmith/pkg/driver/pkgmgr"
	"toolsmith/pkg/platform"
)

// pip prints one of these when the index has no distribution for a requirement.
var pipNotFound = []string{
	"No matching distribution found",
	"Could not find a version that satisfies",
}

// Pip installs Python hosted tools: pipx first, then pip, then the native
// package manager when pip does not know the package.
type Pip struct {
	// Package defaults to the tool name.
	Package string
	// Library tools are installed into the user site instead of an isolated pipx venv.
	Library bool
	Runner  execdriver.Runner
	Which   func(ctx context.Context, name string) (string, error)
	// Fallback is tried when pip cannot find the package. Nil uses python3-<name> native packages.
	Fallback Strategy
}

func (s *Pip) Name() string { return "pip" }

func (s *Pip) Attempt(ctx context.Context, req Request) Outcome {
	name := s.Package
	if name == "" {
		name = req.Tool
	}
	requirement := name
	if req.Version != "" {
		requirement += "==" + req.Version
	}

	if !s.Library {
		if _, err := s.which(ctx, "pipx"); err == nil {
			out, err := s.runner().CombinedOutput(ctx, "pipx", "install", "--force", requirement)
			if err == nil {
				return Installed(s.pipxBinDir(ctx), req.Version)
			}
			slog.Warn("pipx install failed, trying pip", "package", requirement, "error", err, "output", strings.TrimSpace(string(out)))
		}
	}

	python, err := s.python(ctx, req.Platform)
	if err != nil {
		return s.fallback(ctx, req, name, err)
	}
	out, err := s.runner().CombinedOutput(ctx, python, "-m", "pip", "install", "--user", requirement)
	if err != nil {
		if notFound(string(out)) {
			return s.fallback(ctx, req, name, fmt.Errorf("pip cannot find %s", requirement))
		}
		return Failed(fmt.Errorf("pip install %s: %w", requirement, err))
	}
	return Installed(s.userBinDir(ctx, python, req.Platform), req.Version)
}

func (s *Pip) fallback(ctx context.Context, req Request, name string, cause error) Outcome {
	slog.Debug("falling back to native package", "package", name, "reason", cause)
	fb := s.Fallback
	if fb == nil {
		fb = &PackageManager{
			Packages: func(manager string, r Request) []pkgmgr.Package {
				return []pkgmgr.Package{{Name: "python3-" + name, Version: r.Version}}
			},
			Which: s.Which,
		}
	}
	out := fb.Attempt(ctx, req)
	if out.Kind == KindUnavailable {
		out.Cause = errors.Join(cause, out.Cause)
	}
	return out
}

func (s *Pip) python(ctx context.Context, p platform.Info) (string, error) {
	candidates := []string{"python3", "python"}
	if p.OS == platform.Windows {
		candidates = []string{"python", "py"}
	}
	for _, c := range candidates {
		if _, err := s.which(ctx, c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no python interpreter found")
}

func (s *Pip) pipxBinDir(ctx context.Context) string {
	out, err := s.runner().CombinedOutput(ctx, "pipx", "environment", "--value", "PIPX_BIN_DIR")
	if err != nil {
		slog.Debug("failed to query pipx bin dir", "error", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (s *Pip) userBinDir(ctx context.Context, python string, p platform.Info) string {
	out, err := s.runner().CombinedOutput(ctx, python, "-m", "site", "--user-base")
	if err != nil {
		slog.Debug("failed to query python user base", "error", err)
		return ""
	}
	base := strings.TrimSpace(string(out))
	if p.OS == platform.Windows {
		return filepath.Join(base, "Scripts")
	}
	return filepath.Join(base, "bin")
}

func (s *Pip) runner() execdriver.Runner {
	if s.Runner != nil {
		return s.Runner
	}
	return execdriver.DefaultRunner
}

func (s *Pip) which(ctx context.Context, name string) (string, error) {
	if s.Which != nil {
		return s.Which(ctx, name)
	}
	return execdriver.Which(ctx, name)
}

func notFound(output string) bool {
	for _, marker := range pipNotFound {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}
