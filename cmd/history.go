// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/internal/config"
)

// historyCmd builds `history sync` / `history fix`.
func historyCmd(sub config.Subsystem) *cobra.Command {
	root := &cobra.Command{
		Use:   "history",
		Short: "reconcile local history with the ledger",
	}

	root.AddCommand(&cobra.Command{
		Use:   "fix",
		Short: "renumber out-of-order pending migrations to restore a linear history",
		RunE: func(c *cobra.Command, _ []string) error {
			svc, closeFn, err := newService(c.Context(), sub)
			if err != nil {
				return err
			}
			defer closeFn()

			return svc.HistoryFix(c.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "materialize the remote ledger into local migration files",
		RunE: func(c *cobra.Command, _ []string) error {
			svc, closeFn, err := newService(c.Context(), sub)
			if err != nil {
				return err
			}
			defer closeFn()

			return svc.HistorySync(c.Context())
		},
	})

	return root
}
