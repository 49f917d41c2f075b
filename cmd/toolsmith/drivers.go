package main

import (
	"context"
	"fmt"
	"slices"
	"text/tabwriter"

	"toolsmith/pkg/driver"
	envdriver "toolsmith/pkg/driver/env"
	execdriver "toolsmith/pkg/driver/exec"
	fetchurldriver "toolsmith/pkg/driver/fetchurl"
	"toolsmith/pkg/driver/httpclient"
	"toolsmith/pkg/driver/pkgmgr"
	shimdriver "toolsmith/pkg/driver/shim"

	"github.com/spf13/cobra"
)

func init() {
	Registry.FromGetter(func() *cobra.Command {
		return &cobra.Command{
			Use:   "drivers",
			Short: "Show registered drivers and which one is selected",
			RunE: func(c *cobra.Command, args []string) error {
				ctx := c.Context()
				groups := []struct {
					name string
					list func(context.Context) []driver.Info
				}{
					{"env", driver.List[envdriver.Driver]},
					{"exec", driver.List[execdriver.Driver]},
					{"httpclient", driver.List[httpclient.Driver]},
					{"fetchurl", driver.List[fetchurldriver.Driver]},
					{"pkgmgr", driver.List[pkgmgr.Driver]},
					{"shim", driver.List[shimdriver.Driver]},
				}

				w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "KIND\tID\tNAME\tWEIGHT\tSTATUS")
				for _, g := range groups {
					infos := g.list(ctx)
					// Nothing is marked selected before the first Get.
					pending := !slices.ContainsFunc(infos, func(i driver.Info) bool { return i.Selected })
					for _, info := range infos {
						status := "available"
						switch {
						case info.Err != nil:
							status = info.Err.Error()
						case info.Selected || pending:
							status = "selected"
							pending = false
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", g.name, info.ID, info.Name, info.Weight, status)
					}
				}
				return w.Flush()
			},
		}
	})
}
