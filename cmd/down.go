// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/cmd/flags"
	"github.com/cchexcode/qop/internal/config"
	"github.com/cchexcode/qop/pkg/qoperr"
	"github.com/cchexcode/qop/pkg/service"
)

func downCmd(sub config.Subsystem) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "revert the most recently applied migrations",
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
			remote, _ := c.Flags().GetBool("remote")
			unlock, _ := c.Flags().GetBool("unlock")

			return svc.Down(c.Context(), service.DownOptions{
				TimeoutSeconds: timeout,
				Count:          count,
				Remote:         remote,
				Yes:            yes,
				DryRun:         dry,
				Unlock:         unlock,
				ShowDiff:       showDiff,
			})
		},
	}

	flags.RegisterCommon(cmd)
	cmd.Flags().IntVarP(&count, "count", "c", 1, "number of most-recently-applied migrations to revert")
	cmd.Flags().BoolP("remote", "r", false, "source down-SQL from the ledger instead of local files")
	cmd.Flags().Bool("unlock", false, "allow reverting locked migrations")
	cmd.Flags().BoolP("diff", "d", false, "print the migration diff up front (requires --experimental)")

	return cmd
}
