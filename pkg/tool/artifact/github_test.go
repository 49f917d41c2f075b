package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolsmith/pkg/platform"
)

func TestGitHubReleaseLocate(t *testing.T) {
	tests := []struct {
		name         string
		locator      *GitHubRelease
		platform     platform.Info
		version      string
		wantSpecific string
		wantURL      string
		wantFolder   string
		wantBinDir   string
	}{
		{
			name:         "cmake modern linux",
			locator:      NewCMake(ProbeFunc(always)),
			platform:     platform.Info{OS: platform.Linux, Arch: "x86_64"},
			version:      "3.30",
			wantSpecific: "3.30.2",
			wantURL:      "https://github.com/Kitware/CMake/releases/download/v3.30.2/cmake-3.30.2-linux-x86_64.tar.gz",
			wantFolder:   "cmake-3.30.2-linux-x86_64",
			wantBinDir:   "bin",
		},
		{
			name:         "cmake legacy linux naming",
			locator:      NewCMake(ProbeFunc(always)),
			platform:     platform.Info{OS: platform.Linux, Arch: "amd64"},
			version:      "3.16",
			wantSpecific: "3.16.9",
			wantURL:      "https://github.com/Kitware/CMake/releases/download/v3.16.9/cmake-3.16.9-Linux-x86_64.tar.gz",
			wantFolder:   "cmake-3.16.9-Linux-x86_64",
			wantBinDir:   "bin",
		},
		{
			name:         "cmake macos app bundle",
			locator:      NewCMake(ProbeFunc(always)),
			platform:     platform.Info{OS: platform.Darwin, Arch: "arm64"},
			version:      "3.30.2",
			wantSpecific: "3.30.2",
			wantURL:      "https://github.com/Kitware/CMake/releases/download/v3.30.2/cmake-3.30.2-macos-universal.tar.gz",
			wantFolder:   "cmake-3.30.2-macos-universal",
			wantBinDir:   "CMake.app/Contents/bin",
		},
		{
			name:         "cmake legacy windows 32-bit",
			locator:      NewCMake(ProbeFunc(always)),
			platform:     platform.Info{OS: platform.Windows, Arch: "386"},
			version:      "3.19",
			wantSpecific: "3.19.8",
			wantURL:      "https://github.com/Kitware/CMake/releases/download/v3.19.8/cmake-3.19.8-win32-x86.zip",
			wantFolder:   "cmake-3.19.8-win32-x86",
			wantBinDir:   "bin",
		},
		{
			name:         "ninja aarch64",
			locator:      NewNinja(ProbeFunc(always)),
			platform:     platform.Info{OS: platform.Linux, Arch: "aarch64"},
			version:      "1.12",
			wantSpecific: "1.12.1",
			wantURL:      "https://github.com/ninja-build/ninja/releases/download/v1.12.1/ninja-linux-aarch64.zip",
		},
		{
			name:         "ninja unreachable newest",
			locator:      NewNinja(allow("https://github.com/ninja-build/ninja/releases/download/v1.11.0/ninja-mac.zip")),
			platform:     platform.Info{OS: platform.Darwin, Arch: "amd64"},
			version:      "1.11",
			wantSpecific: "1.11.0",
			wantURL:      "https://github.com/ninja-build/ninja/releases/download/v1.11.0/ninja-mac.zip",
		},
		{
			name:         "task windows zip",
			locator:      NewTask(ProbeFunc(always)),
			platform:     platform.Info{OS: platform.Windows, Arch: "x64"},
			version:      "3.38.0",
			wantSpecific: "3.38.0",
			wantURL:      "https://github.com/go-task/task/releases/download/v3.38.0/task_windows_amd64.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specific, d, err := tt.locator.Locate(context.Background(), tt.platform, tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSpecific, specific)
			assert.Equal(t, tt.wantURL, d.URL)
			assert.Equal(t, tt.wantFolder, d.ExtractedFolder)
			assert.Equal(t, tt.wantBinDir, d.BinDir)
			assert.NotNil(t, d.Extract)
		})
	}
}

func TestGitHubReleaseUnsupported(t *testing.T) {
	tests := []struct {
		name     string
		locator  *GitHubRelease
		platform platform.Info
		version  string
	}{
		{name: "cmake legacy aarch64", locator: NewCMake(ProbeFunc(always)), platform: platform.Info{OS: platform.Linux, Arch: "arm64"}, version: "3.16"},
		{name: "ninja old windows arm64", locator: NewNinja(ProbeFunc(always)), platform: platform.Info{OS: platform.Windows, Arch: "arm64"}, version: "1.11"},
		{name: "task riscv", locator: NewTask(ProbeFunc(always)), platform: platform.Info{OS: platform.Linux, Arch: "riscv64"}, version: "3"},
		{name: "unknown version", locator: NewTask(ProbeFunc(always)), platform: platform.Info{OS: platform.Linux, Arch: "amd64"}, version: "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.locator.Locate(context.Background(), tt.platform, tt.version)
			assert.ErrorIs(t, err, ErrUnsupportedTarget)
		})
	}
}

func TestGitHubReleaseVersions(t *testing.T) {
	versions := NewNinja(ProbeFunc(always)).Versions()
	require.NotEmpty(t, versions)
	assert.Equal(t, "1.12.1", versions[0])
}
