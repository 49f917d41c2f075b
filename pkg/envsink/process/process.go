// Package process applies environment changes to the running process.
package process

import (
	"context"
	"os"

	"toolsmith/pkg/envsink"
)

func init() {
	envsink.Register(&Sink{})
}

type Sink struct{}

func (s *Sink) Name() string { return "process" }

func (s *Sink) Detect(ctx context.Context) error { return nil }

func (s *Sink) Apply(ctx context.Context, c envsink.Change) error {
	return os.Setenv(c.Key, c.New)
}
