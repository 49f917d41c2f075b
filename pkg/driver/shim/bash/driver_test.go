package bash

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContent(t *testing.T) {
	d := &Driver{bashPath: "/bin/bash"}
	tests := []struct {
		name    string
		command []string
		want    string
	}{
		{
			name:    "plain",
			command: []string{"/opt/llvm/bin/clang"},
			want:    "#!/bin/bash\nexec /opt/llvm/bin/clang \"$@\"\n",
		},
		{
			name:    "spaces and quotes",
			command: []string{"/opt/my tools/clang", "it's"},
			want:    "#!/bin/bash\nexec '/opt/my tools/clang' 'it'\"'\"'s' \"$@\"\n",
		},
		{
			name:    "empty argument",
			command: []string{"echo", ""},
			want:    "#!/bin/bash\nexec echo '' \"$@\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.GenerateContent(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := d.GenerateContent(nil)
	assert.Error(t, err)
}

func TestGenerateWritesExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bash shims are not used on windows")
	}
	bashPath, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("bash not available")
	}
	d := &Driver{bashPath: bashPath}

	shimPath := filepath.Join(t.TempDir(), "nested", "cc")
	path, err := d.Generate(context.Background(), shimPath, []string{"echo", "hello world"})
	require.NoError(t, err)
	assert.Equal(t, shimPath, path)

	info, err := os.Stat(shimPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111, "shim must be executable")

	out, err := exec.Command(shimPath, "again").Output()
	require.NoError(t, err)
	assert.Equal(t, "hello world again\n", string(out))
}
