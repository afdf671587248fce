// SPDX-License-Identifier: Apache-2.0

// Package repository defines the backend-abstracted capability surface
// the migration service drives. Two concrete implementations satisfy
// it: pkg/repository/postgres and pkg/repository/sqlite.
package repository

import "context"

// HistoryEntry describes one applied migration as recorded in the
// ledger, for presentation purposes.
type HistoryEntry struct {
	ID        string
	AppliedAt string // RFC3339 UTC
	Comment   string
	Locked    bool
}

// FullMigration is a ledger row's full payload, used by `history sync`
// to rematerialize local files.
type FullMigration struct {
	ID      string
	Up      string
	Down    string
	Comment string
}

// Repository is the capability set the service consumes. Every mutating
// method opens exactly one transaction spanning both the user SQL and
// the ledger write; on dry-run that transaction is rolled back instead
// of committed. Implementations are not required to be safe for
// concurrent use by multiple goroutines — the service treats a
// Repository as owned by a single in-flight command.
type Repository interface {
	// InitStore idempotently creates the ledger and log tables.
	InitStore(ctx context.Context) error

	// AppliedIDs returns the set of applied migration IDs.
	AppliedIDs(ctx context.Context) (map[string]struct{}, error)

	// LastID returns the maximum applied ID, or "" if none.
	LastID(ctx context.Context) (string, error)

	// Apply executes up as one multi-statement script and appends a
	// ledger row (plus a log entry) in the same transaction. pre is the
	// ID of the previously-applied migration, or "" for the first. If
	// dryRun, the transaction is rolled back after executing up so
	// correctness can be validated without effect.
	Apply(ctx context.Context, id, up, down, comment, pre string, timeoutSeconds int, dryRun, locked bool) error

	// Revert executes down and deletes the ledger row (plus appends a
	// log entry) in the same transaction. If the row is locked and
	// unlock is false, it fails with qoperr.LockedMigration before
	// running down.
	Revert(ctx context.Context, id, down string, timeoutSeconds int, dryRun, unlock bool) error

	// History returns all applied migrations ascending by ID.
	History(ctx context.Context) ([]HistoryEntry, error)

	// DownSQL returns the ledger's snapshot of a migration's down
	// script, for remote-sourced reverts.
	DownSQL(ctx context.Context, id string) (string, error)

	// AllMigrations returns every ledger row's full payload, for
	// `history sync`.
	AllMigrations(ctx context.Context) ([]FullMigration, error)

	// LastVersion returns the tool version recorded against the most
	// recently applied migration, or "" if the ledger is empty.
	LastVersion(ctx context.Context) (string, error)

	Close() error
}
