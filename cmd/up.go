// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/cmd/flags"
	"github.com/cchexcode/qop/internal/config"
	"github.com/cchexcode/qop/pkg/qoperr"
	"github.com/cchexcode/qop/pkg/service"
)

func upCmd(sub config.Subsystem) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "up",
		Short: "apply all pending migrations",
		Long: `Applies every pending migration in ascending order, or the first
--count of them. Reads each migration's "locked" flag from its
meta.toml — bulk up has no per-item lock override (see apply up for
that).`,
		RunE: func(c *cobra.Command, _ []string) error {
			showDiff, _ := c.Flags().GetBool("diff")
			if showDiff && !flags.Experimental() {
				return qoperr.New(qoperr.ConfigError, "--diff requires the top-level --experimental flag")
			}

			svc, closeFn, err := newService(c.Context(), sub)
			if err != nil {
				return err
			}
			defer closeFn()

			timeout, _ := c.Flags().GetInt("timeout")
			dry, _ := c.Flags().GetBool("dry")
			yes, _ := c.Flags().GetBool("yes")

			return svc.Up(c.Context(), service.UpOptions{
				TimeoutSeconds: timeout,
				Count:          count,
				Yes:            yes,
				DryRun:         dry,
				ShowDiff:       showDiff,
			})
		},
	}

	flags.RegisterCommon(cmd)
	cmd.Flags().IntVarP(&count, "count", "c", 0, "limit to the first N pending migrations (0 means all)")
	cmd.Flags().BoolP("diff", "d", false, "print the migration diff up front (requires --experimental)")

	return cmd
}
