package activate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolsmith/pkg/driver"
	shimdriver "toolsmith/pkg/driver/shim"
	"toolsmith/pkg/platform"
)

var (
	ubuntu = platform.Info{OS: platform.Linux, Arch: "amd64", DistroID: "ubuntu", DistroFamily: platform.FamilyDebian, OSRelease: []int{22, 4}}
	fedora = platform.Info{OS: platform.Linux, Arch: "amd64", DistroID: "fedora", DistroFamily: platform.FamilyRedHat, OSRelease: []int{40}}
)

type recordingRunner struct {
	calls []string
	err   error
}

func (r *recordingRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	return nil, r.err
}

type fakeShims struct {
	generated map[string][]string
}

func (f *fakeShims) GenerateContent(command []string) (string, error) {
	return strings.Join(command, " "), nil
}

func (f *fakeShims) Generate(ctx context.Context, path string, command []string) (string, error) {
	if f.generated == nil {
		f.generated = map[string][]string{}
	}
	f.generated[path] = command
	return path, nil
}

func TestPrepend(t *testing.T) {
	tests := []struct {
		name     string
		platform platform.Info
		initial  string
		dir      string
		want     string
	}{
		{name: "empty", platform: ubuntu, initial: "", dir: "/opt/llvm/bin", want: "/opt/llvm/bin"},
		{name: "new entry", platform: ubuntu, initial: "/usr/bin:/bin", dir: "/opt/llvm/bin", want: "/opt/llvm/bin:/usr/bin:/bin"},
		{name: "moves existing entry", platform: ubuntu, initial: "/usr/bin:/opt/llvm/bin:/bin", dir: "/opt/llvm/bin", want: "/opt/llvm/bin:/usr/bin:/bin"},
		{name: "drops empty entries", platform: ubuntu, initial: "/usr/bin::", dir: "/opt", want: "/opt:/usr/bin"},
		{name: "windows separator", platform: platform.Info{OS: platform.Windows}, initial: `C:\Windows`, dir: `C:\LLVM\bin`, want: `C:\LLVM\bin;C:\Windows`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := MapEnvironment{"PATH": tt.initial}
			a := &Activator{Env: env, Platform: tt.platform}
			require.NoError(t, a.AddPath(context.Background(), tt.dir))
			assert.Equal(t, tt.want, env["PATH"])

			require.NoError(t, a.AddPath(context.Background(), tt.dir))
			assert.Equal(t, tt.want, env["PATH"], "idempotent")
		})
	}
}

func TestAddFlag(t *testing.T) {
	env := MapEnvironment{"LDFLAGS": "-L/usr/local/lib"}
	a := &Activator{Env: env}
	require.NoError(t, a.AddFlag("LDFLAGS", "-L/opt/llvm/lib"))
	require.NoError(t, a.AddFlag("LDFLAGS", "-L/opt/llvm/lib"))
	assert.Equal(t, "-L/usr/local/lib -L/opt/llvm/lib", env["LDFLAGS"])
}

func TestActivateLLVMDebian(t *testing.T) {
	env := MapEnvironment{"PATH": "/usr/bin"}
	r := &recordingRunner{}
	a := &Activator{Env: env, Platform: ubuntu, Runner: r, ShimsDir: "/shims"}
	dir := filepath.Join("/tools", "llvm", "18.1.8", "clang+llvm-18.1.8-x86_64-linux-gnu-ubuntu-18.04")

	require.NoError(t, a.ActivateLLVM(context.Background(), dir))
	require.NoError(t, a.ActivateLLVM(context.Background(), dir))

	bin := filepath.Join(dir, "bin")
	assert.Equal(t, dir, env["LLVM_PATH"])
	assert.Equal(t, filepath.Join(bin, "clang"), env["CC"])
	assert.Equal(t, filepath.Join(bin, "clang++"), env["CXX"])
	assert.Equal(t, filepath.Join(dir, "lib"), env["LD_LIBRARY_PATH"])
	assert.Equal(t, "-L"+filepath.Join(dir, "lib"), env["LDFLAGS"])
	assert.Equal(t, "-I"+filepath.Join(dir, "include"), env["CPPFLAGS"])
	assert.Equal(t, bin+":/usr/bin", env["PATH"])

	require.Len(t, r.calls, 4)
	assert.True(t, strings.HasSuffix(r.calls[0], "update-alternatives --install /usr/bin/cc cc "+filepath.Join(bin, "clang")+" 40"), r.calls[0])
	assert.True(t, strings.HasSuffix(r.calls[1], "update-alternatives --install /usr/bin/c++ c++ "+filepath.Join(bin, "clang++")+" 40"), r.calls[1])
}

func TestActivateLLVMShims(t *testing.T) {
	shims := &fakeShims{}
	ctx := driver.With[shimdriver.Driver](context.Background(), shims)
	env := MapEnvironment{"PATH": "/usr/bin"}
	r := &recordingRunner{}
	a := &Activator{Env: env, Platform: fedora, Runner: r, ShimsDir: "/shims"}

	require.NoError(t, a.ActivateLLVM(ctx, "/tools/llvm"))

	assert.Empty(t, r.calls)
	assert.Equal(t, []string{filepath.Join("/tools/llvm", "bin", "clang")}, shims.generated[filepath.Join("/shims", "cc")])
	assert.Equal(t, []string{filepath.Join("/tools/llvm", "bin", "clang++")}, shims.generated[filepath.Join("/shims", "c++")])
	assert.True(t, strings.HasPrefix(env["PATH"], "/shims:"), env["PATH"])
}

func TestActivateLLVMCollectsFailures(t *testing.T) {
	env := MapEnvironment{}
	r := &recordingRunner{err: errors.New("permission denied")}
	a := &Activator{Env: env, Platform: ubuntu, Runner: r, Priority: 10}

	err := a.ActivateLLVM(context.Background(), "/tools/llvm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update-alternatives cc")
	assert.Contains(t, err.Error(), "update-alternatives c++")
	assert.Contains(t, r.calls[0], " 10")

	// the rest of the environment is still applied
	assert.Equal(t, filepath.Join("/tools/llvm", "bin", "clang"), env["CC"])
}

func TestActivateGCC(t *testing.T) {
	tests := []struct {
		name      string
		platform  platform.Info
		version   string
		wantCC    string
		wantCXX   string
		wantCalls int
	}{
		{name: "versioned debian", platform: ubuntu, version: "13.2.0", wantCC: "gcc-13", wantCXX: "g++-13", wantCalls: 2},
		{name: "distribution default", platform: ubuntu, version: "", wantCC: "gcc", wantCXX: "g++", wantCalls: 2},
		{name: "plain names on fedora", platform: fedora, version: "14", wantCC: "gcc", wantCXX: "g++", wantCalls: 0},
		{name: "plain names on arch", platform: platform.Info{OS: platform.Linux, DistroID: "arch", DistroFamily: platform.FamilyArch, OSRelease: []int{}}, version: "14.2.1", wantCC: "gcc", wantCXX: "g++", wantCalls: 0},
		{name: "homebrew names", platform: platform.Info{OS: platform.Darwin, Arch: "arm64"}, version: "14", wantCC: "gcc-14", wantCXX: "g++-14", wantCalls: 0},
		{name: "mingw names", platform: platform.Info{OS: platform.Windows}, version: "13", wantCC: "gcc", wantCXX: "g++", wantCalls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := MapEnvironment{}
			r := &recordingRunner{}
			a := &Activator{Env: env, Platform: tt.platform, Runner: r}
			require.NoError(t, a.ActivateGCC(context.Background(), "/usr/bin", tt.version))
			assert.Equal(t, tt.wantCC, env["CC"])
			assert.Equal(t, tt.wantCXX, env["CXX"])
			assert.Len(t, r.calls, tt.wantCalls)
			if tt.wantCalls > 0 {
				assert.Contains(t, r.calls[0], filepath.Join("/usr/bin", tt.wantCC))
			}
		})
	}
}
