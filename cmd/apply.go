// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/cmd/flags"
	"github.com/cchexcode/qop/internal/config"
	"github.com/cchexcode/qop/pkg/qoperr"
	"github.com/cchexcode/qop/pkg/service"
)

// applyCmd builds the `apply up <id>` / `apply down <id>` pair:
// single-migration variants of up/down that take an explicit ID instead
// of walking the pending/applied set.
func applyCmd(sub config.Subsystem) *cobra.Command {
	root := &cobra.Command{
		Use:   "apply",
		Short: "apply or revert a single migration by ID",
	}

	root.AddCommand(applyUpCmd(sub))
	root.AddCommand(applyDownCmd(sub))

	return root
}

func applyUpCmd(sub config.Subsystem) *cobra.Command {
	var lockSet, unlockSet bool

	cmd := &cobra.Command{
		Use:   "up <id>",
		Short: "apply a single migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if lockSet && unlockSet {
				return qoperr.New(qoperr.ConfigError, "--lock and --unlock are mutually exclusive")
			}

			svc, closeFn, err := newService(c.Context(), sub)
			if err != nil {
				return err
			}
			defer closeFn()

			timeout, _ := c.Flags().GetInt("timeout")
			dry, _ := c.Flags().GetBool("dry")
			yes, _ := c.Flags().GetBool("yes")

			var lock *bool
			if lockSet {
				v := true
				lock = &v
			} else if unlockSet {
				v := false
				lock = &v
			}

			return svc.ApplyUp(c.Context(), args[0], service.ApplyUpOptions{
				TimeoutSeconds: timeout,
				Yes:            yes,
				DryRun:         dry,
				Lock:           lock,
			})
		},
	}

	flags.RegisterCommon(cmd)
	cmd.Flags().BoolVar(&lockSet, "lock", false, "mark the migration as locked, overriding meta.toml")
	cmd.Flags().BoolVar(&unlockSet, "unlock", false, "mark the migration as unlocked, overriding meta.toml")

	return cmd
}

func applyDownCmd(sub config.Subsystem) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down <id>",
		Short: "revert a single applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
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

			return svc.ApplyDown(c.Context(), args[0], service.ApplyDownOptions{
				TimeoutSeconds: timeout,
				Remote:         remote,
				Yes:            yes,
				DryRun:         dry,
				Unlock:         unlock,
			})
		},
	}

	flags.RegisterCommon(cmd)
	cmd.Flags().BoolP("remote", "r", false, "source down-SQL from the ledger instead of local files")
	cmd.Flags().Bool("unlock", false, "allow reverting a locked migration")

	return cmd
}
