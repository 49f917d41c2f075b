package env

import (
	"context"
	"os"
	"path/filepath"

	"toolsmith/pkg/driver"
	"toolsmith/pkg/platform"
)

// Driver provides platform-specific environment operations.
type Driver interface {
	// DetectPlatform describes the host: OS, CPU architecture, distribution and release.
	DetectPlatform(ctx context.Context) (platform.Info, error)

	// GetUserDataDir returns the path to the user data directory for toolsmith.
	GetUserDataDir(ctx context.Context) (string, error)

	// GetConfigDir returns the path to the user config directory for toolsmith.
	GetConfigDir(ctx context.Context) (string, error)
}

// DetectPlatform describes the host through the selected driver.
func DetectPlatform(ctx context.Context) (platform.Info, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return platform.Info{}, err
	}
	return d.DetectPlatform(ctx)
}

// GetUserDataDir returns the path to the user data directory for toolsmith.
func GetUserDataDir(ctx context.Context) (string, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return "", err
	}
	return d.GetUserDataDir(ctx)
}

// GetConfigDir returns the path to the user config directory for toolsmith.
func GetConfigDir(ctx context.Context) (string, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return "", err
	}
	return d.GetConfigDir(ctx)
}

// ExpandPath expands ~ to home directory and environment variables in a path.
// Examples:
//   - "~/.cache" -> "/home/user/.cache"
//   - "$RUNNER_TEMP/tools" -> "/tmp/runner/tools"
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			if len(path) == 1 {
				return home
			}
			if path[1] == '/' || path[1] == filepath.Separator {
				return filepath.Join(home, path[2:])
			}
		}
	}
	return os.ExpandEnv(path)
}
