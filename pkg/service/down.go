// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"

	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/present"
)

// DownOptions configures a bulk reverse plan.
type DownOptions struct {
	TimeoutSeconds int
	Count          int // targets = the Count most-recently-applied migrations
	Remote         bool
	Yes            bool
	DryRun         bool
	Unlock         bool
	ShowDiff       bool
}

// Down reverts the Count most-recently-applied migrations, newest
// first, sourcing each down-script from the ledger (Remote) or the local
// file. A locked-migration failure aborts the remaining targets.
func (s *Service) Down(ctx context.Context, opts DownOptions) error {
	applied, err := s.Repo.AppliedIDs(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		present.Notice(s.Out, "no migrations applied")
		return nil
	}

	ids := keysOf(applied)
	migration.SortIDs(ids)
	reverseInPlace(ids)

	count := opts.Count
	if count <= 0 || count > len(ids) {
		count = len(ids)
	}
	targets := ids[:count]

	downSQL := make(map[string]string, len(targets))
	for _, id := range targets {
		sql, err := s.resolveDownSQL(ctx, id, opts.Remote)
		if err != nil {
			return err
		}
		downSQL[id] = sql
	}

	blocks := make([]present.Block, 0, len(targets))
	for _, id := range targets {
		blocks = append(blocks, present.Block{ID: id, Dir: present.Down, SQL: downSQL[id]})
	}

	if opts.ShowDiff {
		present.WriteDiff(s.Out, blocks)
	}

	ok, err := PromptWithDiff(s.In, s.Out, fmt.Sprintf("revert %d migration(s)?", len(targets)), opts.Yes, func() {
		present.WriteDiff(s.Out, blocks)
	})
	if err != nil {
		return err
	}
	if !ok {
		present.Notice(s.Out, "cancelled")
		return nil
	}

	for _, id := range targets {
		if err := s.Repo.Revert(ctx, id, downSQL[id], opts.TimeoutSeconds, opts.DryRun, opts.Unlock); err != nil {
			return err
		}
		present.Notice(s.Out, "reverted %s", id)
	}

	return nil
}

// resolveDownSQL sources a migration's down-script from the ledger
// (remote=true) or the local store (remote=false),
// "Remote source / Local source".
func (s *Service) resolveDownSQL(ctx context.Context, id string, remote bool) (string, error) {
	if remote {
		return s.Repo.DownSQL(ctx, id)
	}
	m, err := s.Store.Read(id)
	if err != nil {
		return "", err
	}
	return m.Down, nil
}

func reverseInPlace(ids []string) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}
