// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/internal/config"
)

// diffCmd is the read-only preview of what `up` would do.
func diffCmd(sub config.Subsystem) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "show the SQL that a bulk up would apply, without applying it",
		RunE: func(c *cobra.Command, _ []string) error {
			svc, closeFn, err := newService(c.Context(), sub)
			if err != nil {
				return err
			}
			defer closeFn()

			return svc.Diff(c.Context())
		},
	}
}
