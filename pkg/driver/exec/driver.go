package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"toolsmith/pkg/driver"
)

// ErrBinaryNotFound is returned by Which when a binary is not on PATH.
var ErrBinaryNotFound = errors.New("binary not found")

// Driver spawns processes on the host.
type Driver interface {
	// Run prepares a command. The caller decides how to wire its stdio.
	Run(ctx context.Context, name string, args ...string) *exec.Cmd
	// Which resolves a binary name against PATH.
	Which(ctx context.Context, name string) (string, error)
}

// Run prepares a command through the selected driver.
func Run(ctx context.Context, name string, args ...string) (*exec.Cmd, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, name, args...), nil
}

// Which resolves a binary name through the selected driver.
func Which(ctx context.Context, name string) (string, error) {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return "", err
	}
	return d.Which(ctx, name)
}

// IsBinaryAvailable reports whether name resolves on PATH.
func IsBinaryAvailable(ctx context.Context, name string) bool {
	_, err := Which(ctx, name)
	return err == nil
}

// Runner runs a command to completion and returns its combined output.
// Strategies and the activator depend on it instead of the driver so tests can record calls.
type Runner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f RunnerFunc) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// DefaultRunner runs commands through the selected exec driver.
var DefaultRunner Runner = RunnerFunc(combinedOutput)

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd, err := Run(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, &CommandError{Command: append([]string{name}, args...), Output: string(out), Err: err}
	}
	return out, nil
}

// CommandError carries the output of a command that exited unsuccessfully.
type CommandError struct {
	Command []string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Elevate prefixes a command with sudo when the current user is not root
// and sudo exists. On Windows the command is returned untouched.
func Elevate(ctx context.Context, name string, args ...string) (string, []string) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		return name, args
	}
	if !IsBinaryAvailable(ctx, "sudo") {
		return name, args
	}
	return "sudo", append([]string{name}, args...)
}
