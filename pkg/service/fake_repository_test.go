// SPDX-License-Identifier: Apache-2.0

package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/cchexcode/qop/pkg/migration"
	"github.com/cchexcode/qop/pkg/qoperr"
	"github.com/cchexcode/qop/pkg/repository"
)

// fakeRepository is an in-memory repository.Repository used to exercise
// pkg/service without a real database. It mirrors the ledger semantics
// of the SQL-backed adapters closely enough to drive the planner:
// transactional all-or-nothing Apply/Revert, a locked flag, and the
// ledger ordering the planner depends on.
type fakeRepository struct {
	version string
	rows    map[string]fakeRow
}

type fakeRow struct {
	up, down, comment, pre string
	locked                 bool
	appliedAt              time.Time
}

func newFakeRepository(version string) *fakeRepository {
	return &fakeRepository{version: version, rows: map[string]fakeRow{}}
}

var _ repository.Repository = (*fakeRepository)(nil)

func (f *fakeRepository) InitStore(context.Context) error { return nil }

func (f *fakeRepository) AppliedIDs(context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(f.rows))
	for id := range f.rows {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeRepository) LastID(context.Context) (string, error) {
	ids := f.sortedIDs()
	if len(ids) == 0 {
		return "", nil
	}
	return ids[len(ids)-1], nil
}

func (f *fakeRepository) Apply(_ context.Context, id, up, down, comment, pre string, _ int, dryRun, locked bool) error {
	if _, ok := f.rows[id]; ok {
		return qoperr.New(qoperr.AlreadyApplied, "migration "+id+" is already applied")
	}
	if dryRun {
		return nil
	}
	f.rows[id] = fakeRow{up: up, down: down, comment: comment, pre: pre, locked: locked, appliedAt: time.Now().UTC()}
	return nil
}

func (f *fakeRepository) Revert(_ context.Context, id, down string, _ int, dryRun, unlock bool) error {
	row, ok := f.rows[id]
	if !ok {
		return qoperr.New(qoperr.NotApplied, "migration "+id+" is not applied")
	}
	if row.locked && !unlock {
		return qoperr.New(qoperr.LockedMigration, "migration "+id+" is locked")
	}
	if dryRun {
		return nil
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRepository) History(context.Context) ([]repository.HistoryEntry, error) {
	ids := f.sortedIDs()
	out := make([]repository.HistoryEntry, 0, len(ids))
	for _, id := range ids {
		row := f.rows[id]
		out = append(out, repository.HistoryEntry{
			ID:        id,
			AppliedAt: row.appliedAt.Format(time.RFC3339),
			Comment:   row.comment,
			Locked:    row.locked,
		})
	}
	return out, nil
}

func (f *fakeRepository) DownSQL(_ context.Context, id string) (string, error) {
	row, ok := f.rows[id]
	if !ok {
		return "", qoperr.New(qoperr.NotApplied, "migration "+id+" is not applied")
	}
	return row.down, nil
}

func (f *fakeRepository) AllMigrations(context.Context) ([]repository.FullMigration, error) {
	ids := f.sortedIDs()
	out := make([]repository.FullMigration, 0, len(ids))
	for _, id := range ids {
		row := f.rows[id]
		out = append(out, repository.FullMigration{ID: id, Up: row.up, Down: row.down, Comment: row.comment})
	}
	return out, nil
}

func (f *fakeRepository) LastVersion(context.Context) (string, error) {
	if len(f.rows) == 0 {
		return "", nil
	}
	return f.version, nil
}

func (f *fakeRepository) Close() error { return nil }

func (f *fakeRepository) sortedIDs() []string {
	ids := make([]string, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return migration.Less(ids[i], ids[j]) })
	return ids
}
