package main

import (
	"errors"
	"fmt"

	"toolsmith/pkg/config"
	"toolsmith/pkg/envsink/profile"
	"toolsmith/pkg/shellgen"

	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(parent *cobra.Command) {
		var shell string
		cmd := &cobra.Command{
			Use:   "env",
			Short: "Print the exports of previous activations",
			Example: `  eval "$(toolsmith env)"
  toolsmith env --shell pwsh | Invoke-Expression`,
			RunE: func(c *cobra.Command, args []string) error {
				path := config.Current().Activation.Profile
				if path == "" {
					return errors.New("no activation profile configured (set activation.profile)")
				}
				exports, err := profile.Read(path)
				if err != nil {
					return err
				}
				out, err := shellgen.Render(shell, exports)
				if err != nil {
					return err
				}
				fmt.Fprint(c.OutOrStdout(), out)
				return nil
			},
		}
		cmd.Flags().StringVar(&shell, "shell", shellgen.Bash, "Output syntax (bash or pwsh)")
		parent.AddCommand(cmd)
	})
}
