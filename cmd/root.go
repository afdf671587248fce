// SPDX-License-Identifier: Apache-2.0

// Package cmd wires the cobra CLI tree. It is out of the migration
// engine's core — argument parsing, config loading, and terminal
// rendering are external collaborators — but it is the engine's only
// shipped entry point.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cchexcode/qop/cmd/flags"
	"github.com/cchexcode/qop/internal/config"
	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/repository"
	"github.com/cchexcode/qop/pkg/repository/postgres"
	"github.com/cchexcode/qop/pkg/repository/sqlite"
	"github.com/cchexcode/qop/pkg/service"
)

// Version is the qop version, set via -ldflags at build time. It
// defaults to "development", which bypasses the version-skew handshake
// entirely (see config.CheckVersion).
var Version = "development"

var rootCmd = &cobra.Command{
	Use:          "qop",
	Short:        "qop coordinates ordered SQL migrations against Postgres or SQLite",
	SilenceUsage: true,
	Version:      Version,
}

func init() {
	flags.RegisterRoot(rootCmd)
}

// Execute runs the CLI, returning the first error encountered.
func Execute() error {
	rootCmd.AddCommand(manCmd())
	rootCmd.AddCommand(autocompleteCmd())
	rootCmd.AddCommand(subsystemCmd())
	return rootCmd.Execute()
}

// newService loads qop.toml, constructs the appropriate Repository, and
// returns a ready-to-use service.Service plus a close func. It is the
// single choke point every leaf command goes through.
func newService(ctx context.Context, s config.Subsystem) (*service.Service, func() error, error) {
	cfg, err := config.Load(flags.ConfigPath())
	if err != nil {
		return nil, nil, err
	}

	sub, err := cfg.Subsystem(s)
	if err != nil {
		return nil, nil, err
	}

	conn, err := sub.Connection.Resolve()
	if err != nil {
		return nil, nil, err
	}

	var repo repository.Repository
	switch s {
	case config.SubsystemPostgres:
		repo, err = postgres.New(postgres.Config{
			DSN:             conn,
			Schema:          orDefault(sub.Schema, "public"),
			MigrationsTable: sub.MigrationsTable(),
			LogTable:        sub.LogTable(),
			ToolVersion:     Version,
		})
	case config.SubsystemSQLite:
		repo, err = sqlite.New(sqlite.Config{
			Path:            conn,
			MigrationsTable: sub.MigrationsTable(),
			LogTable:        sub.LogTable(),
			ToolVersion:     Version,
			BusyTimeoutMs:   sub.TimeoutSeconds * 1000,
		})
	default:
		return nil, nil, fmt.Errorf("unknown subsystem %q", s)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := checkVersionSkew(ctx, repo); err != nil {
		repo.Close()
		return nil, nil, err
	}

	store := migration.New(cfg.Root)
	svc := service.New(store, repo, Version)

	return svc, repo.Close, nil
}

func checkVersionSkew(ctx context.Context, repo repository.Repository) error {
	last, err := repo.LastVersion(ctx)
	if err != nil {
		// If the ledger tables don't exist yet (pre-`init`), there's
		// nothing to check against; let the calling command surface the
		// real error (e.g. on first use before `init`).
		return nil
	}
	return config.CheckVersion(Version, last)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
