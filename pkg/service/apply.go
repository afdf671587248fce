// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"

	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/present"
	"github.com/cchexcode/qop/pkg/qoperr"
)

// ApplyUpOptions configures a single forward apply.
type ApplyUpOptions struct {
	TimeoutSeconds int
	Yes            bool
	DryRun         bool
	// Lock, when non-nil, overrides meta.toml's locked field per the
	// CLI-flag-over-meta precedence documented in SPEC_FULL.md.
	Lock *bool
}

// ApplyUp applies a single migration by ID.
func (s *Service) ApplyUp(ctx context.Context, id string, opts ApplyUpOptions) error {
	id = migration.Normalize(id)

	local, err := s.Store.ListLocal()
	if err != nil {
		return err
	}
	if _, ok := local[id]; !ok {
		return qoperr.New(qoperr.StoreIO, fmt.Sprintf("migration %s not found in local store", id))
	}

	applied, err := s.Repo.AppliedIDs(ctx)
	if err != nil {
		return err
	}
	if _, ok := applied[id]; ok {
		present.Notice(s.Out, "migration %s is already applied", id)
		return nil
	}

	maxApplied := migration.MaxID(keysOf(applied))
	if maxApplied != "" && migration.Less(id, maxApplied) {
		present.Warn(s.Out, "migration %s sorts before the latest applied migration (%s)", id, maxApplied)
		ok, err := PromptWithDiff(s.In, s.Out, "continue applying out-of-order migration?", opts.Yes, func() {})
		if err != nil {
			return err
		}
		if !ok {
			present.Notice(s.Out, "cancelled")
			return nil
		}
	}

	m, err := s.Store.Read(id)
	if err != nil {
		return err
	}

	locked := m.Meta.IsLocked()
	if opts.Lock != nil {
		locked = *opts.Lock
	}

	ok, err := PromptWithDiff(s.In, s.Out, fmt.Sprintf("apply migration %s?", id), opts.Yes, func() {
		present.WriteDiff(s.Out, []present.Block{{ID: id, Dir: present.Up, SQL: m.Up}})
	})
	if err != nil {
		return err
	}
	if !ok {
		present.Notice(s.Out, "cancelled")
		return nil
	}

	previous, err := s.Repo.LastID(ctx)
	if err != nil {
		return err
	}

	if err := s.Repo.Apply(ctx, id, m.Up, m.Down, m.Meta.CommentOr(""), previous, opts.TimeoutSeconds, opts.DryRun, locked); err != nil {
		return err
	}
	present.Notice(s.Out, "applied %s", id)
	return nil
}

// ApplyDownOptions configures a single reverse apply.
type ApplyDownOptions struct {
	TimeoutSeconds int
	Remote         bool
	Yes            bool
	DryRun         bool
	Unlock         bool
}

// ApplyDown reverts a single applied migration by ID.
func (s *Service) ApplyDown(ctx context.Context, id string, opts ApplyDownOptions) error {
	id = migration.Normalize(id)

	applied, err := s.Repo.AppliedIDs(ctx)
	if err != nil {
		return err
	}
	if _, ok := applied[id]; !ok {
		return qoperr.New(qoperr.NotApplied, fmt.Sprintf("migration %s is not applied", id))
	}

	maxApplied := migration.MaxID(keysOf(applied))
	if id != maxApplied {
		present.Warn(s.Out, "migration %s is not the most recently applied migration (%s)", id, maxApplied)
		ok, err := PromptWithDiff(s.In, s.Out, "continue reverting out-of-order migration?", opts.Yes, func() {})
		if err != nil {
			return err
		}
		if !ok {
			present.Notice(s.Out, "cancelled")
			return nil
		}
	}

	down, err := s.resolveDownSQL(ctx, id, opts.Remote)
	if err != nil {
		return err
	}

	ok, err := PromptWithDiff(s.In, s.Out, fmt.Sprintf("revert migration %s?", id), opts.Yes, func() {
		present.WriteDiff(s.Out, []present.Block{{ID: id, Dir: present.Down, SQL: down}})
	})
	if err != nil {
		return err
	}
	if !ok {
		present.Notice(s.Out, "cancelled")
		return nil
	}

	if err := s.Repo.Revert(ctx, id, down, opts.TimeoutSeconds, opts.DryRun, opts.Unlock); err != nil {
		return err
	}
	present.Notice(s.Out, "reverted %s", id)
	return nil
}
