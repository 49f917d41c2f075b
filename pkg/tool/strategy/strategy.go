// Package strategy implements the installation methods of a tool and the
// fallback chain between them.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"toolsmith/pkg/platform"
)

// ErrUnavailable is wrapped by the cause of every unavailable outcome.
var ErrUnavailable = errors.New("strategy unavailable")

// Kind tags an Outcome.
type Kind int

const (
	KindUnavailable Kind = iota
	KindInstalled
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindInstalled:
		return "installed"
	case KindFailed:
		return "failed"
	}
	return "unavailable"
}

// Request is what a strategy is asked to install.
type Request struct {
	Tool string
	// Version is the concrete version. Empty lets the strategy choose.
	Version string
	// Requested is the version as the caller asked for it, before resolution.
	Requested string
	Arch      string
	Platform  platform.Info
}

// Target is the platform the request installs for, with Arch overriding the host architecture.
func (r Request) Target() platform.Info {
	p := r.Platform
	if r.Arch != "" {
		p.Arch = r.Arch
	}
	return p
}

// Outcome is the result of one attempt.
type Outcome struct {
	Kind   Kind
	BinDir string
	// Version is the version actually installed, when the strategy knows it.
	Version string
	Cause   error
}

// Installed reports a successful installation.
func Installed(binDir, version string) Outcome {
	return Outcome{Kind: KindInstalled, BinDir: binDir, Version: version}
}

// Unavailable reports that the strategy does not apply to the request.
func Unavailable(cause error) Outcome {
	if cause == nil {
		cause = ErrUnavailable
	} else if !errors.Is(cause, ErrUnavailable) {
		cause = fmt.Errorf("%w: %w", ErrUnavailable, cause)
	}
	return Outcome{Kind: KindUnavailable, Cause: cause}
}

// Failed reports that the strategy applied but did not succeed.
func Failed(cause error) Outcome {
	return Outcome{Kind: KindFailed, Cause: cause}
}

// Strategy is one way of installing a tool.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req Request) Outcome
}

// FailedError is the cause recorded for a failed strategy.
type FailedError struct {
	Strategy string
	Err      error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Strategy, e.Err)
}

func (e *FailedError) Unwrap() error { return e.Err }

// ExhaustedError is returned when no strategy installed the tool.
type ExhaustedError struct {
	Tool string
	// Requested is the version asked for, Version the one it resolved to.
	Requested string
	Version   string
	Causes    []error
}

func (e *ExhaustedError) Error() string {
	version := e.Version
	if version == "" {
		version = "default"
	}
	if e.Requested != "" && e.Requested != version {
		version = fmt.Sprintf("%s (resolved to %s)", e.Requested, version)
	}
	msg := fmt.Sprintf("could not install %s %s", e.Tool, version)
	if len(e.Causes) == 0 {
		return msg + ": no installation strategy"
	}
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = c.Error()
	}
	return msg + ": " + strings.Join(parts, "; ")
}

func (e *ExhaustedError) Unwrap() []error { return e.Causes }

// Result describes a successful installation.
type Result struct {
	Strategy string
	BinDir   string
	Version  string
}

// Install tries strategies in order and stops at the first one that installs the tool.
func Install(ctx context.Context, req Request, strategies ...Strategy) (Result, error) {
	exhausted := &ExhaustedError{Tool: req.Tool, Requested: req.Requested, Version: req.Version}
	for _, s := range strategies {
		out := s.Attempt(ctx, req)
		switch out.Kind {
		case KindInstalled:
			version := out.Version
			if version == "" {
				version = req.Version
			}
			slog.Debug("installed", "tool", req.Tool, "version", version, "strategy", s.Name(), "bin", out.BinDir)
			return Result{Strategy: s.Name(), BinDir: out.BinDir, Version: version}, nil
		case KindFailed:
			slog.Warn("install strategy failed", "tool", req.Tool, "version", req.Version, "strategy", s.Name(), "error", out.Cause)
			exhausted.Causes = append(exhausted.Causes, &FailedError{Strategy: s.Name(), Err: out.Cause})
		default:
			slog.Debug("install strategy unavailable", "tool", req.Tool, "strategy", s.Name(), "reason", out.Cause)
			cause := out.Cause
			if cause == nil {
				cause = ErrUnavailable
			}
			exhausted.Causes = append(exhausted.Causes, fmt.Errorf("%s: %w", s.Name(), cause))
		}
	}
	return Result{}, exhausted
}
