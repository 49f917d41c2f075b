package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupRespectsVerbosity(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(&buf, false)
	logger.Debug("hidden message")
	logger.Info("visible message", "tool", "cmake")
	assert.NotContains(t, buf.String(), "hidden message")
	assert.Contains(t, buf.String(), "visible message")
	assert.Contains(t, buf.String(), "cmake")

	buf.Reset()
	logger = Setup(&buf, true)
	logger.Debug("debug message")
	assert.Contains(t, buf.String(), "debug message")
}

func TestGetLoggerFallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), GetLogger(context.Background()))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), custom)
	assert.Same(t, custom, GetLogger(ctx))
}
