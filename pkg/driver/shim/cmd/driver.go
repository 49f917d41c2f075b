package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"toolsmith/pkg/driver"
	shimdriver "toolsmith/pkg/driver/shim"
)

type Provider struct{}

func (p *Provider) ID() string         { return "shim_cmd" }
func (p *Provider) Name() string       { return "Windows Batch Shim" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("%w: batch shims need cmd.exe", driver.ErrIncompatible)
	}
	return nil
}

func (p *Provider) New(ctx context.Context) (shimdriver.Driver, error) {
	return &Driver{}, nil
}

type Driver struct{}

func (d *Driver) GenerateContent(command []string) (string, error) {
	if len(command) == 0 {
		return "", fmt.Errorf("command cannot be empty")
	}
	quoted := make([]string, len(command))
	for i, arg := range command {
		quoted[i] = `"` + strings.ReplaceAll(arg, `"`, `""`) + `"`
	}
	return "@echo off\r\n" + strings.Join(quoted, " ") + " %*\r\n", nil
}

func (d *Driver) Generate(ctx context.Context, path string, command []string) (string, error) {
	content, err := d.GenerateContent(command)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(path), ".cmd") {
		path += ".cmd"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write shim to %s: %w", path, err)
	}
	return path, nil
}

func init() {
	driver.Register[shimdriver.Driver](&Provider{})
}
