// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"strconv"
	"time"

	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/present"
	"github.com/cchexcode/qop/pkg/qoperr"
)

// HistoryFix restores linear ordering after parallel branch development:
// every pending local migration that sorts before the latest applied
// migration is renamed to a fresh timestamp strictly after it,
// preserving the pending migrations' relative order. It never mutates
// the ledger.
func (s *Service) HistoryFix(ctx context.Context) error {
	local, err := s.Store.ListLocal()
	if err != nil {
		return err
	}
	applied, err := s.Repo.AppliedIDs(ctx)
	if err != nil {
		return err
	}

	maxApplied := migration.MaxID(keysOf(applied))
	if maxApplied == "" {
		present.Notice(s.Out, "no applied migrations; history is trivially linear")
		return nil
	}

	pending := subtract(local, applied)
	migration.SortIDs(pending)

	ooo := outOfOrder(pending, maxApplied)
	if len(ooo) == 0 {
		present.Notice(s.Out, "history is already linear")
		return nil
	}

	appliedAsInt, err := parseMaxInt64(keysOf(applied))
	if err != nil {
		return qoperr.Wrap(qoperr.StoreIO, "failed to parse applied id as integer", err)
	}
	nowMs := time.Now().UTC().UnixMilli()
	maxTs := appliedAsInt
	if nowMs > maxTs {
		maxTs = nowMs
	}

	for i, oldID := range ooo {
		newID := strconv.FormatInt(maxTs+1+int64(i), 10)
		if err := s.Store.Rename(oldID, newID); err != nil {
			return err
		}
		present.Notice(s.Out, "renamed %s -> %s", oldID, newID)
	}

	return nil
}

// HistorySync materializes the remote ledger locally,
// overwriting any existing files for the same ID. Used to recover local
// state on a fresh checkout against a production ledger.
func (s *Service) HistorySync(ctx context.Context) error {
	all, err := s.Repo.AllMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range all {
		comment := m.Comment
		if err := s.Store.Write(m.ID, m.Up, m.Down, &comment); err != nil {
			return err
		}
	}

	present.Notice(s.Out, "synced %d migration(s) from the ledger", len(all))
	return nil
}

func parseMaxInt64(ids []string) (int64, error) {
	var max int64
	for _, id := range ids {
		v, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, err
		}
		if v > max {
			max = v
		}
	}
	return max, nil
}
