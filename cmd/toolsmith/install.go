package main

import (
	"errors"
	"fmt"
	"log/slog"

	"toolsmith/pkg/parse/spec"
	"toolsmith/pkg/tool"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	Registry.Register(func(parent *cobra.Command) {
		var arch string
		var noActivate bool
		var jobs int

		cmd := &cobra.Command{
			Use:   "install <tool[@version]>...",
			Short: "Install and activate tools",
			Example: `  toolsmith install llvm@18 cmake ninja
  toolsmith install gcc --arch arm64 --no-activate`,
			Args: cobra.MinimumNArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				ctx := c.Context()
				if jobs < 1 {
					return fmt.Errorf("--jobs must be at least 1, got %d", jobs)
				}
				specs, err := spec.ParseAll(args)
				if err != nil {
					return err
				}

				opts := []tool.Option{tool.WithProgress(c.ErrOrStderr())}
				database, err := openDB(ctx)
				if err != nil {
					slog.Warn("install receipts disabled", "error", err)
				} else {
					defer database.Close()
					opts = append(opts, tool.WithRecorder(database))
				}

				manager, err := tool.NewManager(ctx, opts...)
				if err != nil {
					return err
				}

				installs := make([]tool.Installation, len(specs))
				errs := make([]error, len(specs))
				var g errgroup.Group
				g.SetLimit(jobs)
				for i, s := range specs {
					g.Go(func() error {
						inst, err := manager.EnsureInstalled(ctx, s.Tool, s.Version, arch)
						if err != nil {
							errs[i] = fmt.Errorf("%s: %w", s, err)
							return nil
						}
						installs[i] = inst
						return nil
					})
				}
				_ = g.Wait()

				// Activation order decides which compiler wins, so it follows the arguments.
				for i, inst := range installs {
					if errs[i] != nil {
						continue
					}
					if !noActivate {
						if err := manager.Activate(ctx, inst); err != nil {
							slog.Warn("activation incomplete", "tool", inst.Tool, "error", err)
						}
					}
					fmt.Fprintf(c.OutOrStdout(), "%s\t%s\t%s\n", inst.Tool, displayVersion(inst.Version), inst.BinDir)
				}
				return errors.Join(errs...)
			},
		}
		cmd.Flags().StringVar(&arch, "arch", "", "Target architecture (defaults to the host)")
		cmd.Flags().BoolVar(&noActivate, "no-activate", false, "Install without changing the environment")
		cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Concurrent installs")
		parent.AddCommand(cmd)
	})
}

func displayVersion(v string) string {
	if v == "" {
		return spec.DefaultVersion
	}
	return v
}
