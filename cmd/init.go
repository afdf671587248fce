// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/internal/config"
)

func initCmd(sub config.Subsystem) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create the ledger and log tables",
		RunE: func(c *cobra.Command, _ []string) error {
			svc, closeFn, err := newService(c.Context(), sub)
			if err != nil {
				return err
			}
			defer closeFn()

			return svc.Init(c.Context())
		},
	}
}
