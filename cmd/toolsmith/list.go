package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	Registry.Register(func(parent *cobra.Command) {
		cmd := &cobra.Command{
			Use:   "list",
			Short: "List recorded installations",
			RunE: func(c *cobra.Command, args []string) error {
				asJSON, _ := c.Flags().GetBool("json")

				database, err := openDB(c.Context())
				if err != nil {
					return err
				}
				defer database.Close()

				receipts, err := database.ListInstalls(c.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return json.NewEncoder(c.OutOrStdout()).Encode(receipts)
				}
				for _, r := range receipts {
					fmt.Fprintf(c.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\t%s\n",
						r.InstalledAt.Format("2006-01-02 15:04:05"), r.Tool, displayVersion(r.Version), r.Arch, r.Strategy, r.BinDir)
				}
				return nil
			},
		}
		cmd.Flags().Bool("json", false, "Output as JSON")
		parent.AddCommand(cmd)
	})
}
