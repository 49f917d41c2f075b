package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolsmith/pkg/db"
	"toolsmith/pkg/envsink/profile"
	"toolsmith/pkg/shellgen"
)

func writeConfig(t *testing.T) (configPath, dir string) {
	t.Helper()
	t.Setenv("TOOLSMITH_CONFIG", "")
	dir = t.TempDir()
	configPath = filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`tools_dir = '%s'
shims_dir = '%s'
database = '%s'

[activation]
profile = '%s'
github_actions = false
`,
		filepath.Join(dir, "tools"),
		filepath.Join(dir, "shims"),
		filepath.Join(dir, "toolsmith.db"),
		filepath.Join(dir, "profile.sh"),
	)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath, dir
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), stderr.String())
	return stdout.String()
}

func TestToolsCommand(t *testing.T) {
	configPath, _ := writeConfig(t)
	out := run(t, "--config", configPath, "tools")
	assert.Contains(t, out, "llvm\n")
	assert.Contains(t, out, "ninja\n")
}

func TestVersionsCommand(t *testing.T) {
	configPath, _ := writeConfig(t)
	out := run(t, "--config", configPath, "versions", "cmake")
	assert.Contains(t, out, "3.30.2\n")
	assert.Contains(t, out, "3.10.3")
}

func TestEnvCommand(t *testing.T) {
	configPath, dir := writeConfig(t)
	require.NoError(t, profile.Update(filepath.Join(dir, "profile.sh"), []shellgen.Export{
		{Key: "CC", Value: "/tools/llvm/bin/clang"},
		{Key: "PATH", Value: "/tools/llvm/bin", Prepend: true},
	}))

	out := run(t, "--config", configPath, "env")
	assert.Contains(t, out, `export CC="/tools/llvm/bin/clang"`)
	assert.Contains(t, out, `export PATH="/tools/llvm/bin:$PATH"`)

	out = run(t, "--config", configPath, "env", "--shell", "pwsh")
	assert.Contains(t, out, `$env:CC = '/tools/llvm/bin/clang'`)
}

func TestListCommand(t *testing.T) {
	configPath, dir := writeConfig(t)
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(dir, "toolsmith.db"))
	require.NoError(t, err)
	require.NoError(t, database.RecordInstall(ctx, db.Receipt{Tool: "ninja", Requested: "default", Version: "1.12.1", Arch: "amd64", Strategy: "archive", BinDir: "/tools/ninja/1.12.1"}))
	require.NoError(t, database.Close())

	var receipts []db.Receipt
	out := run(t, "--config", configPath, "list", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &receipts))
	require.Len(t, receipts, 1)
	assert.Equal(t, "ninja", receipts[0].Tool)
	assert.Equal(t, "archive", receipts[0].Strategy)

	out = run(t, "--config", configPath, "list")
	assert.Contains(t, out, "ninja\t1.12.1\tamd64\tarchive")
}

func TestInstallRejectsNonPositiveJobs(t *testing.T) {
	configPath, dir := writeConfig(t)
	for _, jobs := range []string{"0", "-1"} {
		t.Run(jobs, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			cmd := newRootCommand()
			cmd.SetOut(&stdout)
			cmd.SetErr(&stderr)
			cmd.SetArgs([]string{"--config", configPath, "install", "--jobs=" + jobs, "ninja"})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--jobs must be at least 1")
			assert.Empty(t, stdout.String())
			assert.NoDirExists(t, filepath.Join(dir, "tools"))
		})
	}
}
