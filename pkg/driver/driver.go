package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// DefaultWeight is the weight given to general purpose providers.
// Platform specific providers usually return something higher.
const DefaultWeight = 50

var (
	// ErrIncompatible marks a provider as not usable on the current host.
	ErrIncompatible = errors.New("driver is incompatible")
	// ErrNotFound is returned when no registered provider is usable.
	ErrNotFound = errors.New("no compatible driver found")
)

// Provider builds driver implementations of type T.
type Provider[T any] interface {
	ID() string
	Name() string
	DefaultWeight() int
	CheckCompatibility(ctx context.Context) error
	New(ctx context.Context) (T, error)
}

type entry struct {
	id     string
	name   string
	weight func() int
	check  func(ctx context.Context) error
	build  func(ctx context.Context) (any, error)
}

// Info describes a registered provider for diagnostics.
type Info struct {
	ID       string
	Name     string
	Weight   int
	Selected bool
	Err      error
}

var (
	mu        sync.Mutex
	registry  = map[reflect.Type][]entry{}
	weights   = map[string]int{}
	instances = map[reflect.Type]any{}
	selected  = map[reflect.Type]string{}
)

// Register adds a provider for the driver interface T.
func Register[T any](p Provider[T]) {
	t := reflect.TypeFor[T]()
	mu.Lock()
	defer mu.Unlock()
	registry[t] = append(registry[t], entry{
		id:     p.ID(),
		name:   p.Name(),
		weight: p.DefaultWeight,
		check:  p.CheckCompatibility,
		build: func(ctx context.Context) (any, error) {
			return p.New(ctx)
		},
	})
}

// SetWeight overrides the weight of the provider with the given id.
// Cached driver instances are dropped so the next Get re-evaluates.
func SetWeight(id string, weight int) {
	mu.Lock()
	defer mu.Unlock()
	weights[id] = weight
	instances = map[reflect.Type]any{}
	selected = map[reflect.Type]string{}
}

// Reset drops cached driver instances and weight overrides.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	weights = map[string]int{}
	instances = map[reflect.Type]any{}
	selected = map[reflect.Type]string{}
}

type overrideKey struct{ t reflect.Type }

// With returns a context in which Get[T] resolves to d instead of a registered provider.
func With[T any](ctx context.Context, d T) context.Context {
	return context.WithValue(ctx, overrideKey{reflect.TypeFor[T]()}, d)
}

// Get returns the highest weighted compatible driver for T.
func Get[T any](ctx context.Context) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()

	if ctx != nil {
		if v, ok := ctx.Value(overrideKey{t}).(T); ok {
			return v, nil
		}
	}

	mu.Lock()
	if inst, ok := instances[t]; ok {
		mu.Unlock()
		return inst.(T), nil
	}
	candidates := sortedEntries(t)
	mu.Unlock()

	if len(candidates) == 0 {
		return zero, fmt.Errorf("%w: nothing registered for %s", ErrNotFound, t)
	}

	// Providers may resolve other drivers while checking, so the lock is not held here.
	var errs []error
	for _, e := range candidates {
		if err := e.check(ctx); err != nil {
			slog.Debug("driver incompatible", "driver", e.id, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.id, err))
			continue
		}
		inst, err := e.build(ctx)
		if err != nil {
			slog.Debug("driver failed to initialize", "driver", e.id, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.id, err))
			continue
		}

		mu.Lock()
		defer mu.Unlock()
		if existing, ok := instances[t]; ok {
			return existing.(T), nil
		}
		slog.Debug("driver selected", "interface", t.String(), "driver", e.id)
		instances[t] = inst
		selected[t] = e.id
		return inst.(T), nil
	}
	return zero, fmt.Errorf("%w for %s: %w", ErrNotFound, t, errors.Join(errs...))
}

// List describes every provider registered for T in selection order.
func List[T any](ctx context.Context) []Info {
	t := reflect.TypeFor[T]()
	mu.Lock()
	candidates := sortedEntries(t)
	out := make([]Info, 0, len(candidates))
	for _, e := range candidates {
		out = append(out, Info{
			ID:       e.id,
			Name:     e.name,
			Weight:   weightOf(e),
			Selected: e.id == selected[t],
		})
	}
	mu.Unlock()

	for i, e := range candidates {
		out[i].Err = e.check(ctx)
	}
	return out
}

// must be called with mu held
func sortedEntries(t reflect.Type) []entry {
	candidates := append([]entry(nil), registry[t]...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return weightOf(candidates[i]) > weightOf(candidates[j])
	})
	return candidates
}

func weightOf(e entry) int {
	if w, ok := weights[e.id]; ok {
		return w
	}
	return e.weight()
}
