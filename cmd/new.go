// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/cmd/flags"
	"github.com/cchexcode/qop/internal/config"
	"github.com/cchexcode/qop/pkg/migration"
)

func newCmd(sub config.Subsystem) *cobra.Command {
	var comment string
	var lock bool

	cmd := &cobra.Command{
		Use:   "new",
		Short: "create a new migration skeleton",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.ConfigPath())
			if err != nil {
				return err
			}
			store := migration.New(cfg.Root)

			var commentPtr *string
			if c.Flags().Changed("comment") {
				commentPtr = &comment
			}

			id, err := store.Create(commentPtr, lock)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.OutOrStdout(), filepath.Join(cfg.Root, migration.DirName(id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "migration comment")
	cmd.Flags().BoolVar(&lock, "lock", false, "mark the migration as locked")

	return cmd
}
