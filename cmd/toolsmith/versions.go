package main

import (
	"fmt"
	"strings"

	"toolsmith/pkg/tool"

	"github.com/spf13/cobra"
)

func init() {
	Registry.FromGetter(func() *cobra.Command {
		return &cobra.Command{
			Use:   "versions <tool>",
			Short: "List the release versions known for a tool",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				manager, err := tool.NewManager(c.Context())
				if err != nil {
					return err
				}
				versions, err := manager.Versions(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), strings.Join(versions, "\n"))
				return nil
			},
		}
	})

	Registry.FromGetter(func() *cobra.Command {
		return &cobra.Command{
			Use:   "tools",
			Short: "List the tools toolsmith can install",
			RunE: func(c *cobra.Command, args []string) error {
				for _, name := range tool.Known() {
					fmt.Fprintln(c.OutOrStdout(), name)
				}
				return nil
			},
		}
	})
}
