package provider

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// ErrNotApplicable is returned by Detect when a provider does not apply.
var ErrNotApplicable = errors.New("provider not applicable")

// Provider is the base interface for aggregated implementations.
// Unlike drivers (where one is chosen), every applicable provider is used.
type Provider interface {
	// Name returns the unique identifier of the provider.
	// Examples: "process", "github".
	Name() string

	// Detect returns nil when the provider applies in ctx, ErrNotApplicable
	// when it does not, and any other error when detection itself failed.
	Detect(ctx context.Context) error
}

var (
	mu        sync.RWMutex
	providers = map[reflect.Type][]any{}
)

// Register adds a provider implementation to the global registry for a specific interface T.
func Register[T Provider](p T) {
	mu.Lock()
	defer mu.Unlock()
	t := reflect.TypeFor[T]()
	providers[t] = append(providers[t], p)
}

// List returns all registered providers for the interface T, in registration order.
func List[T Provider]() []T {
	mu.RLock()
	defer mu.RUnlock()
	t := reflect.TypeFor[T]()
	rawList := providers[t]

	result := make([]T, len(rawList))
	for i, raw := range rawList {
		result[i] = raw.(T)
	}
	return result
}

// Applicable returns the providers for T whose Detect succeeds. Detection
// failures other than ErrNotApplicable are returned alongside.
func Applicable[T Provider](ctx context.Context) ([]T, error) {
	var (
		out  []T
		errs []error
	)
	for _, p := range List[T]() {
		err := p.Detect(ctx)
		switch {
		case err == nil:
			out = append(out, p)
		case errors.Is(err, ErrNotApplicable):
		default:
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}
