// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"

	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/present"
)

// Diff is read-only: it prints what Up would do without mutating
// anything.
func (s *Service) Diff(ctx context.Context) error {
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

	if len(pending) == 0 {
		present.Notice(s.Out, "up to date, nothing to apply")
		return nil
	}

	blocks, err := s.upBlocks(pending)
	if err != nil {
		return err
	}
	present.WriteDiff(s.Out, blocks)
	return nil
}
