package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink interface {
	Provider
	Kind() string
}

type fakeSink struct {
	name string
	err  error
}

func (f *fakeSink) Name() string                     { return f.name }
func (f *fakeSink) Detect(ctx context.Context) error { return f.err }
func (f *fakeSink) Kind() string                     { return "fake" }

func TestApplicable(t *testing.T) {
	broken := errors.New("cannot stat")
	Register[sink](&fakeSink{name: "always"})
	Register[sink](&fakeSink{name: "skipped", err: ErrNotApplicable})
	Register[sink](&fakeSink{name: "broken", err: broken})
	Register[sink](&fakeSink{name: "also"})

	assert.Len(t, List[sink](), 4)

	got, err := Applicable[sink](context.Background())
	require.ErrorIs(t, err, broken)
	require.Len(t, got, 2)
	assert.Equal(t, "always", got[0].Name())
	assert.Equal(t, "also", got[1].Name())
}
