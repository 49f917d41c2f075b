// Package registry collects cobra subcommands from package init functions.
package registry

import (
	"sync"

	"github.com/spf13/cobra"
)

// CommandRegistry holds functions that attach commands to a parent.
// The zero value is ready to use.
type CommandRegistry struct {
	mu    sync.Mutex
	funcs []func(parent *cobra.Command)
}

// Register queues fn to run against the parent passed to FillCommands.
func (r *CommandRegistry) Register(fn func(parent *cobra.Command)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs = append(r.funcs, fn)
}

// FromGetter registers a command built by getter.
func (r *CommandRegistry) FromGetter(getter func() *cobra.Command) {
	r.Register(func(parent *cobra.Command) {
		parent.AddCommand(getter())
	})
}

// FillCommands attaches every registered command to parent, in registration order.
func (r *CommandRegistry) FillCommands(parent *cobra.Command) {
	r.mu.Lock()
	funcs := append([]func(*cobra.Command){}, r.funcs...)
	r.mu.Unlock()
	for _, fn := range funcs {
		fn(parent)
	}
}
