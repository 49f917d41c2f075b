package main

import (
	"context"
	"log/slog"
	"os"

	"toolsmith/pkg/config"
	"toolsmith/pkg/db"
	"toolsmith/pkg/logging"
	_ "toolsmith/pkg/provider/prelude"
	"toolsmith/pkg/registry"
	"toolsmith/pkg/version"

	"github.com/spf13/cobra"
)

var Registry registry.CommandRegistry

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("error", "err", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	var configPath string

	cmd := &cobra.Command{
		Use:           "toolsmith",
		Short:         "toolsmith - C/C++ toolchain provisioning",
		Version:       version.GetBuildID(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			logger := logging.Setup(c.ErrOrStderr(), verbose)
			c.SetContext(logging.WithLogger(c.Context(), logger))

			if configPath != "" {
				if err := os.Setenv("TOOLSMITH_CONFIG", configPath); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return cfg.ResolveDirs(c.Context())
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (or set TOOLSMITH_CONFIG)")
	Registry.FillCommands(cmd)
	return cmd
}

func openDB(ctx context.Context) (*db.DB, error) {
	return db.Open(ctx, config.Current().Database)
}
