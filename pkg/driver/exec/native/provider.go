package native

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"toolsmith/pkg/driver"
	execdriver "toolsmith/pkg/driver/exec"
)

func init() {
	driver.Register[execdriver.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "exec_native" }
func (p *Provider) Name() string       { return "Native Process Spawner" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	return nil
}

func (p *Provider) New(ctx context.Context) (execdriver.Driver, error) {
	return &Driver{}, nil
}

type Driver struct{}

func (d *Driver) Run(ctx context.Context, name string, args ...string) *exec.Cmd {
	slog.Debug("spawning process", "command", name, "args", args)
	return exec.CommandContext(ctx, name, args...)
}

func (d *Driver) Which(ctx context.Context, name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		slog.Debug("which", "binary", name, "result", execdriver.ErrBinaryNotFound)
		return "", fmt.Errorf("%w: %s", execdriver.ErrBinaryNotFound, name)
	}
	slog.Debug("which", "binary", name, "result", path)
	return path, nil
}
