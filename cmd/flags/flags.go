// SPDX-License-Identifier: Apache-2.0

// Package flags centralizes viper-bound flag lookups: persistent flags
// bound to env-prefixed viper keys at init time.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.SetEnvPrefix("QOP")
	viper.AutomaticEnv()
}

// ConfigPath returns the --path flag value (default "qop.toml").
func ConfigPath() string {
	return viper.GetString("CONFIG_PATH")
}

// Experimental returns the top-level -e/--experimental toggle.
func Experimental() bool {
	return viper.GetBool("EXPERIMENTAL")
}

// RegisterRoot binds the persistent flags shared by every subcommand.
func RegisterRoot(cmd *cobra.Command) {
	cmd.PersistentFlags().String("path", "qop.toml", "path to qop.toml")
	cmd.PersistentFlags().BoolP("experimental", "e", false, "enable experimental features")

	viper.BindPFlag("CONFIG_PATH", cmd.PersistentFlags().Lookup("path"))
	viper.BindPFlag("EXPERIMENTAL", cmd.PersistentFlags().Lookup("experimental"))
}

// RegisterCommon binds the flags shared by most mutating subcommands.
func RegisterCommon(cmd *cobra.Command) {
	cmd.Flags().IntP("timeout", "t", 0, "per-transaction timeout in seconds (0 disables it)")
	cmd.Flags().Bool("dry", false, "execute and validate without committing")
	cmd.Flags().BoolP("yes", "y", false, "skip interactive confirmation")
	cmd.MarkFlagsMutuallyExclusive("dry", "yes")
}
