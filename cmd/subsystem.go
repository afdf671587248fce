// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/internal/config"
)

// subsystemCmd builds the `qop subsystem postgres|sqlite <cmd>` tree.
// Both backends expose an identical leaf command set; only which
// config.Subsystem they bind to differs.
func subsystemCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "subsystem",
		Short: "operate against a specific backend",
	}

	root.AddCommand(backendCmd(config.SubsystemPostgres))
	root.AddCommand(backendCmd(config.SubsystemSQLite))

	return root
}

func backendCmd(sub config.Subsystem) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(sub),
		Short: fmt.Sprintf("migrate against %s", sub),
	}

	cmd.AddCommand(configInitCmd(sub))
	cmd.AddCommand(initCmd(sub))
	cmd.AddCommand(newCmd(sub))
	cmd.AddCommand(upCmd(sub))
	cmd.AddCommand(downCmd(sub))
	cmd.AddCommand(applyCmd(sub))
	cmd.AddCommand(listCmd(sub))
	cmd.AddCommand(historyCmd(sub))
	cmd.AddCommand(diffCmd(sub))

	return cmd
}
