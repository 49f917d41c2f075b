// Package envsink persists environment changes to every place that needs them:
// the current process, the GitHub Actions env and path files, and a shell profile.
package envsink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"toolsmith/pkg/provider"
)

// ListKeys are path lists whose changes are recorded as prepends.
var ListKeys = []string{"PATH", "LD_LIBRARY_PATH", "DYLD_LIBRARY_PATH"}

// Change is one variable update.
type Change struct {
	Key string
	Old string
	New string
	// Added lists the entries of a list variable that New puts in front of Old, in order.
	Added []string
}

// IsList reports whether the change is to a path list variable.
func (c Change) IsList() bool {
	return slices.Contains(ListKeys, c.Key)
}

// Sink receives environment changes.
type Sink interface {
	provider.Provider
	Apply(ctx context.Context, c Change) error
}

// Register adds a sink to the aggregated registry.
func Register(s Sink) {
	provider.Register[Sink](s)
}

// Env is an Environment writing through every applicable sink. Reads come from the process.
type Env struct {
	ctx   context.Context
	sinks []Sink
	sep   string
}

// New detects the applicable sinks.
func New(ctx context.Context) (*Env, error) {
	sinks, err := provider.Applicable[Sink](ctx)
	if err != nil {
		slog.Warn("environment sink detection failed", "error", err)
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("no environment sink applies")
	}
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	slog.Debug("environment sinks", "sinks", names)
	return &Env{ctx: ctx, sinks: sinks, sep: string(os.PathListSeparator)}, nil
}

// NewWithSinks builds an Env from explicit sinks.
func NewWithSinks(ctx context.Context, sep string, sinks ...Sink) *Env {
	return &Env{ctx: ctx, sinks: sinks, sep: sep}
}

func (e *Env) Get(key string) string { return os.Getenv(key) }

// Set applies the change to every sink. A failing sink does not stop the others.
func (e *Env) Set(key, value string) error {
	c := Change{Key: key, Old: e.Get(key), New: value}
	if c.Old == c.New {
		return nil
	}
	if c.IsList() {
		c.Added = added(c.Old, c.New, e.sep)
	}
	var errs []error
	for _, s := range e.sinks {
		if err := s.Apply(e.ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// added returns the shortest prefix of next which, taken out of prev, leaves
// the rest of next. This is what a sequence of prepends put in front.
func added(prev, next, sep string) []string {
	old := split(prev, sep)
	cur := split(next, sep)
	for k := 0; k <= len(cur); k++ {
		front := cur[:k]
		var rest []string
		for _, e := range old {
			if !slices.Contains(front, e) {
				rest = append(rest, e)
			}
		}
		if slices.Equal(rest, cur[k:]) {
			return slices.Clone(front)
		}
	}
	return cur
}

func split(list, sep string) []string {
	var out []string
	for _, e := range strings.Split(list, sep) {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
