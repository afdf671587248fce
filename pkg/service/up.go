// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"

	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/present"
)

// UpOptions configures a bulk forward plan.
type UpOptions struct {
	TimeoutSeconds int
	Count          int // 0 means "all pending"
	Yes            bool
	DryRun         bool
	// ShowDiff prints the diff blocks up front (the CLI's -d/--diff
	// flag, gated behind --experimental) instead of requiring the
	// interactive "d" response to reveal them.
	ShowDiff bool
}

// Up computes the pending set (local minus applied), optionally caps it
// to Count, warns and confirms on non-linear history, confirms with a
// diff, then applies each pending migration in ascending order. A
// failure aborts the remaining plan; migrations already committed stay
// applied.
func (s *Service) Up(ctx context.Context, opts UpOptions) error {
	local, err := s.Store.ListLocal()
	if err != nil {
		return err
	}
	applied, err := s.Repo.AppliedIDs(ctx)
	if err != nil {
		return err
	}

	pending := subtract(local, applied)
	migration.SortIDs(pending)

	if opts.Count > 0 && opts.Count < len(pending) {
		pending = pending[:opts.Count]
	}

	if len(pending) == 0 {
		present.Notice(s.Out, "up to date, nothing to apply")
		return nil
	}

	maxApplied := migration.MaxID(keysOf(applied))
	ooo := outOfOrder(pending, maxApplied)
	if len(ooo) > 0 {
		present.Warn(s.Out, "the following pending migrations sort before the latest applied migration (%s): %v", maxApplied, ooo)
		present.Warn(s.Out, `history is non-linear; consider running "history fix" first`)
		ok, err := PromptWithDiff(s.In, s.Out, "continue applying out-of-order migrations?", opts.Yes, func() {})
		if err != nil {
			return err
		}
		if !ok {
			present.Notice(s.Out, "cancelled")
			return nil
		}
	}

	blocks, err := s.upBlocks(pending)
	if err != nil {
		return err
	}

	if opts.ShowDiff {
		present.WriteDiff(s.Out, blocks)
	}

	ok, err := PromptWithDiff(s.In, s.Out, fmt.Sprintf("apply %d migration(s)?", len(pending)), opts.Yes, func() {
		present.WriteDiff(s.Out, blocks)
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

	for _, id := range pending {
		m, err := s.Store.Read(id)
		if err != nil {
			return err
		}

		if err := s.Repo.Apply(ctx, id, m.Up, m.Down, m.Meta.CommentOr(""), previous, opts.TimeoutSeconds, opts.DryRun, m.Meta.IsLocked()); err != nil {
			return err
		}
		previous = id
		present.Notice(s.Out, "applied %s", id)
	}

	return nil
}

func (s *Service) upBlocks(ids []string) ([]present.Block, error) {
	blocks := make([]present.Block, 0, len(ids))
	for _, id := range ids {
		m, err := s.Store.Read(id)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, present.Block{ID: id, Dir: present.Up, SQL: m.Up})
	}
	return blocks, nil
}

func subtract(a, b map[string]struct{}) []string {
	out := make([]string, 0, len(a))
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func keysOf(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func outOfOrder(ids []string, maxApplied string) []string {
	if maxApplied == "" {
		return nil
	}
	var ooo []string
	for _, id := range ids {
		if migration.Less(id, maxApplied) {
			ooo = append(ooo, id)
		}
	}
	return ooo
}
