package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolsmith/pkg/driver"
)

const sample = `
tools_dir = "/opt/toolsmith"

[defaults]
cmake = "3.30.2"

[linux_defaults.gcc]
"20" = "10"
"22" = "11"

[linux_distro]
gcc = "debian"

[drivers]
pkgmgr_apt = 10

[checksums]
"https://example.com/ninja-linux.zip" = "sha256:0123abcd"

[download]
mirrors = ["https://mirror.example.com"]

[activation]
profile = "~/.toolsmithrc"
github_actions = false
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "/opt/toolsmith", cfg.ToolsDir)
	assert.Equal(t, "3.30.2", cfg.Defaults["cmake"])
	assert.Equal(t, map[string]map[int]string{"gcc": {20: "10", 22: "11"}}, cfg.LinuxDefaultTable())
	assert.Equal(t, map[string]string{"gcc": "debian"}, cfg.LinuxDistro)
	assert.Equal(t, 10, cfg.Drivers["pkgmgr_apt"])
	assert.Equal(t, "sha256:0123abcd", cfg.Checksums["https://example.com/ninja-linux.zip"])
	assert.Equal(t, []string{"https://mirror.example.com"}, cfg.Download.Mirrors)
	assert.Equal(t, DefaultAlternativesPriority, cfg.Activation.AlternativesPriority)
	require.NotNil(t, cfg.Activation.GitHubActions)
	assert.False(t, *cfg.Activation.GitHubActions)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown key", doc: `tool_dir = "/tmp"`},
		{name: "non numeric release", doc: "[linux_defaults.gcc]\nfocal = \"10\"\n"},
		{name: "weight is not an integer", doc: "[drivers]\npkgmgr_apt = \"high\"\n"},
		{name: "bad checksum", doc: "[checksums]\n\"https://x\" = \"md5:zz\"\n"},
		{name: "mirror without scheme", doc: "[download]\nmirrors = [\"mirror.example.com\"]\n"},
		{name: "not toml", doc: "tools_dir = "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadHonoursEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))
	t.Setenv("TOOLSMITH_CONFIG", path)
	t.Cleanup(func() {
		SetCurrent(nil)
		driver.Reset()
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/toolsmith", cfg.ToolsDir)
	assert.Same(t, cfg, Current())
}

func TestResolveDirsKeepsExplicitValues(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := Default()
	cfg.ToolsDir = "/opt/tools"
	cfg.ShimsDir = "/opt/shims"
	cfg.Database = "~/receipts.db"
	require.NoError(t, cfg.ResolveDirs(t.Context()))
	assert.Equal(t, "/opt/tools", cfg.ToolsDir)
	assert.Equal(t, filepath.Join(home, "receipts.db"), cfg.Database)
}
