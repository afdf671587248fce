// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// manCmd generates man pages for the entire command tree into a
// directory, letting packagers ship `qop man` as a build step instead
// of vendoring static man pages.
func manCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:    "man",
		Short:  "generate man pages into a directory",
		Hidden: true,
		RunE: func(c *cobra.Command, _ []string) error {
			header := &doc.GenManHeader{Title: "QOP", Section: "1"}
			return doc.GenManTree(rootCmd, header, dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")

	return cmd
}
