package driver

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type staticGreeter string

func (s staticGreeter) Greet() string { return string(s) }

type fakeProvider struct {
	id     string
	weight int
	err    error
	builds *int
}

func (p fakeProvider) ID() string         { return p.id }
func (p fakeProvider) Name() string       { return "fake " + p.id }
func (p fakeProvider) DefaultWeight() int { return p.weight }

func (p fakeProvider) CheckCompatibility(ctx context.Context) error {
	return p.err
}

func (p fakeProvider) New(ctx context.Context) (greeter, error) {
	if p.builds != nil {
		*p.builds++
	}
	return staticGreeter(p.id), nil
}

func withCleanRegistry(t *testing.T) {
	t.Helper()
	mu.Lock()
	saved := registry
	registry = map[reflect.Type][]entry{}
	mu.Unlock()
	Reset()
	t.Cleanup(func() {
		mu.Lock()
		registry = saved
		mu.Unlock()
		Reset()
	})
}

func TestGetPrefersHighestCompatibleWeight(t *testing.T) {
	withCleanRegistry(t)
	Register[greeter](fakeProvider{id: "low", weight: 10})
	Register[greeter](fakeProvider{id: "high", weight: 90, err: ErrIncompatible})
	Register[greeter](fakeProvider{id: "mid", weight: DefaultWeight})

	g, err := Get[greeter](context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mid", g.Greet())
}

func TestGetCachesInstance(t *testing.T) {
	withCleanRegistry(t)
	builds := 0
	Register[greeter](fakeProvider{id: "only", weight: DefaultWeight, builds: &builds})

	for range 3 {
		_, err := Get[greeter](context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, builds)
}

func TestSetWeightChangesSelection(t *testing.T) {
	withCleanRegistry(t)
	Register[greeter](fakeProvider{id: "a", weight: 60})
	Register[greeter](fakeProvider{id: "b", weight: 40})

	g, err := Get[greeter](context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", g.Greet())

	SetWeight("b", 100)
	g, err = Get[greeter](context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", g.Greet())
}

func TestGetWithoutCompatibleProvider(t *testing.T) {
	withCleanRegistry(t)
	Register[greeter](fakeProvider{id: "broken", weight: 50, err: errors.New("missing binary")})

	_, err := Get[greeter](context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "missing binary")
}

func TestWithOverridesRegistry(t *testing.T) {
	withCleanRegistry(t)
	Register[greeter](fakeProvider{id: "registered", weight: 50})

	ctx := With[greeter](context.Background(), staticGreeter("override"))
	g, err := Get[greeter](ctx)
	require.NoError(t, err)
	assert.Equal(t, "override", g.Greet())
}

func TestListReportsSelection(t *testing.T) {
	withCleanRegistry(t)
	Register[greeter](fakeProvider{id: "a", weight: 70})
	Register[greeter](fakeProvider{id: "b", weight: 30, err: ErrIncompatible})

	_, err := Get[greeter](context.Background())
	require.NoError(t, err)

	infos := List[greeter](context.Background())
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].ID)
	assert.True(t, infos[0].Selected)
	assert.NoError(t, infos[0].Err)
	assert.Equal(t, "b", infos[1].ID)
	assert.False(t, infos[1].Selected)
	assert.ErrorIs(t, infos[1].Err, ErrIncompatible)
}
