// SPDX-License-Identifier: Apache-2.0

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchexcode/qop/pkg/qoperr"
	"github.com/cchexcode/qop/pkg/repository/sqlite"
)

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qop.db")
	repo, err := sqlite.New(sqlite.Config{
		Path:            path,
		MigrationsTable: "migrations",
		LogTable:        "log",
		ToolVersion:     "1.0.0",
		BusyTimeoutMs:   2000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.InitStore(context.Background()))
	return repo
}

func TestSQLiteApplyAndRevert(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE t (id int);", "DROP TABLE t;", "first", "", 0, false, false))

	applied, err := repo.AppliedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"1": {}}, applied)

	last, err := repo.LastID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", last)

	down, err := repo.DownSQL(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "DROP TABLE t;", down)

	require.NoError(t, repo.Revert(ctx, "1", down, 0, false, false))

	applied, err = repo.AppliedIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestSQLiteApplyDryRunDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE t (id int);", "DROP TABLE t;", "", "", 0, true, false))

	applied, err := repo.AppliedIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied, "dry run must not leave a committed ledger row")
}

func TestSQLiteRevertLockedRequiresUnlock(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE t (id int);", "DROP TABLE t;", "", "", 0, false, true))

	err := repo.Revert(ctx, "1", "DROP TABLE t;", 0, false, false)
	require.Error(t, err)
	assert.True(t, qoperr.Is(err, qoperr.LockedMigration))

	require.NoError(t, repo.Revert(ctx, "1", "DROP TABLE t;", 0, false, true))
}

func TestSQLiteApplyFailureLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	err := repo.Apply(ctx, "1", "THIS IS NOT VALID SQL;", "DROP TABLE t;", "", "", 0, false, false)
	require.Error(t, err)
	assert.True(t, qoperr.Is(err, qoperr.DBError))

	applied, err := repo.AppliedIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied, "a failing up.sql must leave the ledger row uncommitted along with the user SQL")
}

func TestSQLiteRevertFailureLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE t (id int);", "DROP TABLE t;", "", "", 0, false, false))

	err := repo.Revert(ctx, "1", "THIS IS NOT VALID SQL;", 0, false, false)
	require.Error(t, err)
	assert.True(t, qoperr.Is(err, qoperr.DBError))

	applied, err := repo.AppliedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"1": {}}, applied, "a failing down.sql must leave the ledger row in place along with the user SQL")
}

func TestSQLiteRevertNotApplied(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	err := repo.Revert(ctx, "does-not-exist", "DROP TABLE t;", 0, false, false)
	require.Error(t, err)
	assert.True(t, qoperr.Is(err, qoperr.NotApplied))
}

func TestSQLiteHistoryAndAllMigrations(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Apply(ctx, "1", "CREATE TABLE a (id int);", "DROP TABLE a;", "first", "", 0, false, false))
	require.NoError(t, repo.Apply(ctx, "2", "CREATE TABLE b (id int);", "DROP TABLE b;", "second", "1", 0, false, false))

	history, err := repo.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "1", history[0].ID)
	assert.Equal(t, "2", history[1].ID)
	assert.NotEmpty(t, history[0].AppliedAt)

	all, err := repo.AllMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "CREATE TABLE a (id int);", all[0].Up)
	assert.Equal(t, "second", all[1].Comment)
}

func TestSQLiteLastVersion(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	v, err := repo.LastVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, repo.Apply(ctx, "1", "SELECT 1;", "SELECT 1;", "", "", 0, false, false))

	v, err = repo.LastVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v)
}
