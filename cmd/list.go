// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/internal/config"
	"github.com/cchexcode/qop/pkg/present"
)

func listCmd(sub config.Subsystem) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list local and applied migrations",
		RunE: func(c *cobra.Command, _ []string) error {
			svc, closeFn, err := newService(c.Context(), sub)
			if err != nil {
				return err
			}
			defer closeFn()

			return svc.List(c.Context(), present.Format(output))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(present.Human), "output format: human or json")

	return cmd
}
