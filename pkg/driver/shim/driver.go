// Package shim writes small launcher scripts that forward to another executable.
package shim

import (
	"context"

	"toolsmith/pkg/driver"
)

// Driver writes shims in the script dialect of the host.
type Driver interface {
	// GenerateContent returns the script body that runs command with the caller's arguments appended.
	GenerateContent(command []string) (string, error)

	// Generate writes an executable shim at path. Drivers may add the extension
	// the platform needs and return the final path.
	Generate(ctx context.Context, path string, command []string) (string, error)
}

// Generate writes a shim with the selected driver.
func Generate(ctx context.Context, path string, command []string) (string, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return "", err
	}
	return d.Generate(ctx, path, command)
}
