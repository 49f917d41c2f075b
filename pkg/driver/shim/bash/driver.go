package bash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"toolsmith/pkg/driver"
	execdriver "toolsmith/pkg/driver/exec"
	shimdriver "toolsmith/pkg/driver/shim"
)

type Provider struct{}

func (p *Provider) ID() string {
	return "shim_bash"
}

func (p *Provider) Name() string {
	return "Bash Shim"
}

func (p *Provider) DefaultWeight() int {
	return driver.DefaultWeight
}

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if runtime.GOOS == "windows" {
		return fmt.Errorf("%w: bash shims are not executable on windows", driver.ErrIncompatible)
	}
	_, err := execdriver.Which(ctx, "bash")
	return err
}

func (p *Provider) New(ctx context.Context) (shimdriver.Driver, error) {
	// Prefer $SHELL if it's bash, otherwise use which bash
	bashPath := os.Getenv("SHELL")
	if bashPath == "" || !strings.Contains(bashPath, "bash") {
		var err error
		bashPath, err = execdriver.Which(ctx, "bash")
		if err != nil {
			return nil, fmt.Errorf("bash not found: %w", err)
		}
	}
	return &Driver{bashPath: bashPath}, nil
}

type Driver struct {
	bashPath string
}

// GenerateContent creates the shim script content
func (d *Driver) GenerateContent(command []string) (string, error) {
	if len(command) == 0 {
		return "", fmt.Errorf("command cannot be empty")
	}

	quoted := make([]string, len(command))
	for i, arg := range command {
		quoted[i] = quote(arg)
	}
	return fmt.Sprintf("#!%s\nexec %s \"$@\"\n", d.bashPath, strings.Join(quoted, " ")), nil
}

func (d *Driver) Generate(ctx context.Context, path string, command []string) (string, error) {
	content, err := d.GenerateContent(command)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return "", fmt.Errorf("failed to write shim to %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

func quote(arg string) string {
	if arg == "" {
		return "''"
	}
	if strings.ContainsAny(arg, " \t\n\"'$`\\|&;<>()[]{}*?!") {
		return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
	}
	return arg
}

func init() {
	driver.Register[shimdriver.Driver](&Provider{})
}
