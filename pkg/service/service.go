// SPDX-License-Identifier: Apache-2.0

// Package service is the migration engine's planner/orchestrator. It
// reads the local store and the remote ledger, computes diffs, enforces
// linear-history and locking policy, drives user confirmation, and
// invokes the repository with correctly shaped transactions.
package service

import (
	"context"
	"io"
	"os"

	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/repository"
)

// Service ties the local Store to a backend Repository and drives all
// user-facing operations. It is not safe for concurrent use — callers
// run one command per invocation.
type Service struct {
	Store       *migration.Store
	Repo        repository.Repository
	ToolVersion string

	In  io.Reader
	Out io.Writer
}

// New constructs a Service with the standard stdin/stdout streams.
func New(store *migration.Store, repo repository.Repository, toolVersion string) *Service {
	return &Service{
		Store:       store,
		Repo:        repo,
		ToolVersion: toolVersion,
		In:          os.Stdin,
		Out:         os.Stdout,
	}
}

// Init idempotently creates the ledger and log tables.
func (s *Service) Init(ctx context.Context) error {
	return s.Repo.InitStore(ctx)
}

// NewMigration delegates to the Store to write a fresh migration
// skeleton and returns its ID.
func (s *Service) NewMigration(comment *string, locked bool) (string, error) {
	return s.Store.Create(comment, locked)
}
